package merlx

import (
	"errors"
	"fmt"
)

// Error kinds reported while reading a module. All of them are recoverable:
// analysis keeps whatever it built before the failure.
var (
	ErrInvalidMagic         = errors.New("invalid MERL magic")
	ErrMalformedHeader      = errors.New("malformed MERL header")
	ErrTruncated            = errors.New("truncated MERL module")
	ErrMalformedSymbolTable = errors.New("malformed MERL symbol table")
)

// TruncatedError reports a structure that needed more bytes than the buffer holds.
type TruncatedError struct {
	At   int    // byte offset where the incomplete structure starts
	Need int    // bytes the structure required from At
	What string // what was being read
}

func (e *TruncatedError) Error() string {
	if e.What == "" {
		return fmt.Sprintf("truncated at offset 0x%08X", e.At)
	}
	if e.Need > 0 {
		return fmt.Sprintf("truncated %s at offset 0x%08X (need %d bytes)", e.What, e.At, e.Need)
	}
	return fmt.Sprintf("truncated %s at offset 0x%08X", e.What, e.At)
}

func (e *TruncatedError) Unwrap() error {
	return ErrTruncated
}

func truncated(at, need int, what string) *TruncatedError {
	return &TruncatedError{At: at, Need: need, What: what}
}

// Truncated builds a TruncatedError for callers outside this package.
func Truncated(at, need int, what string) error {
	return truncated(at, need, what)
}
