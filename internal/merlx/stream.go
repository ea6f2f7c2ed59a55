// Package merlx reads MERL object modules: a bounds-checked big-endian word
// stream over the raw file bytes and the header layout derived from it.
package merlx

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WordSize is the size of every MERL word in bytes.
const WordSize = 4

// Stream is a read-only view of a module as big-endian 32-bit words.
// A buffer whose length is not a multiple of four is valid; the trailing
// bytes are reported through Partial and never read as a word.
type Stream struct {
	Path string
	data []byte
}

// NewStream wraps data without copying it. The caller must not modify data afterwards.
func NewStream(data []byte) *Stream {
	return &Stream{data: data}
}

// Open reads the whole file at path.
func Open(path string) (*Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open merl: %w", err)
	}
	return &Stream{Path: path, data: data}, nil
}

// ReadFrom reads r to EOF into a new stream.
func ReadFrom(r io.Reader) (*Stream, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read merl: %w", err)
	}
	return &Stream{data: data}, nil
}

// Len returns the buffer length in bytes.
func (s *Stream) Len() int { return len(s.data) }

// LenWords returns the number of complete words.
func (s *Stream) LenWords() int { return len(s.data) / WordSize }

// AlignedLen returns the byte length covered by complete words.
func (s *Stream) AlignedLen() int { return s.LenWords() * WordSize }

// RemainingBytes returns how many bytes lie at or after offset.
func (s *Stream) RemainingBytes(offset int) int {
	if offset < 0 || offset >= len(s.data) {
		return 0
	}
	return len(s.data) - offset
}

// Partial returns the trailing bytes that do not form a full word, and their offset.
func (s *Stream) Partial() (int, []byte) {
	off := s.AlignedLen()
	return off, s.data[off:]
}

// HasPartial reports whether the buffer ends with an incomplete word.
func (s *Stream) HasPartial() bool {
	return len(s.data)%WordSize != 0
}

// WordAt reads the word at offset. Offsets must be word aligned.
func (s *Stream) WordAt(offset int) (uint32, error) {
	if offset < 0 || offset%WordSize != 0 {
		return 0, fmt.Errorf("unaligned offset 0x%X", offset)
	}
	if s.RemainingBytes(offset) < WordSize {
		return 0, truncated(offset, WordSize, "word")
	}
	return binary.BigEndian.Uint32(s.data[offset : offset+WordSize]), nil
}

// LastWord returns the last complete word and its offset.
func (s *Stream) LastWord() (uint32, int, bool) {
	n := s.LenWords()
	if n == 0 {
		return 0, 0, false
	}
	off := (n - 1) * WordSize
	return binary.BigEndian.Uint32(s.data[off:]), off, true
}
