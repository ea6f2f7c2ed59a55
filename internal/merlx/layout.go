package merlx

import "fmt"

// MERL constants.
const (
	Magic     uint32 = 0x10000002
	EndMarker uint32 = 0x10000001

	// FullHeaderSize covers magic, endOfModule and endOfCode.
	FullHeaderSize = 12
	// SimplifiedHeaderSize covers magic and codeSize.
	SimplifiedHeaderSize = 8
	// SimplifiedOverhead is header plus end marker of a simplified module.
	SimplifiedOverhead = SimplifiedHeaderSize + WordSize
)

// Format is the header convention of a module.
type Format int

const (
	FormatFull Format = iota
	FormatSimplified
)

func (f Format) String() string {
	switch f {
	case FormatSimplified:
		return "Simplified"
	default:
		return "Full"
	}
}

// Layout is the segment map of a module.
//
// Detection is a best-effort guess: a file whose last word is the end marker
// and whose second word equals totalBytes-12 is taken as Simplified, anything
// else as Full. A Full module that happens to satisfy the same arithmetic is
// misread; the consistency checks below only catch impossible layouts.
type Layout struct {
	Format Format

	// Declared header values (Full) or derived ones (Simplified).
	EndOfModule uint32
	EndOfCode   uint32
	CodeSize    int

	CodeStart int // first code byte
	CodeEnd   int // one past the last code byte, clamped to the buffer
	ModuleEnd int // one past the end marker, clamped to the buffer

	TotalBytes int
}

// HasRelocation reports whether a symbol table region can exist.
func (l *Layout) HasRelocation() bool {
	return l.Format == FormatFull
}

// Detect reads the header of s and derives its layout.
//
// A non-nil layout may come back together with a TruncatedError when the
// declared module extends past the buffer; the layout is then clamped. Other
// errors come back with a nil layout.
func Detect(s *Stream) (*Layout, error) {
	magic, err := s.WordAt(0)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrInvalidMagic, magic, Magic)
	}

	total := s.AlignedLen()
	if isSimplified(s, total) {
		return detectSimplified(total)
	}
	return detectFull(s, total)
}

func isSimplified(s *Stream, total int) bool {
	last, _, ok := s.LastWord()
	if !ok || last != EndMarker {
		return false
	}
	if total < SimplifiedOverhead {
		// magic followed directly by the end marker
		return true
	}
	size, err := s.WordAt(WordSize)
	if err != nil {
		return false
	}
	return int64(size) == int64(total-SimplifiedOverhead)
}

func detectSimplified(total int) (*Layout, error) {
	codeSize := total - SimplifiedOverhead
	if codeSize < 0 {
		return nil, fmt.Errorf("%w: simplified code size %d is negative", ErrMalformedHeader, codeSize)
	}
	return &Layout{
		Format:      FormatSimplified,
		EndOfModule: uint32(total),
		EndOfCode:   uint32(total - WordSize),
		CodeSize:    codeSize,
		CodeStart:   SimplifiedHeaderSize,
		CodeEnd:     total - WordSize,
		ModuleEnd:   total,
		TotalBytes:  total,
	}, nil
}

func detectFull(s *Stream, total int) (*Layout, error) {
	endOfModule, err := s.WordAt(4)
	if err != nil {
		return nil, truncated(0, FullHeaderSize, "header")
	}
	endOfCode, err := s.WordAt(8)
	if err != nil {
		return nil, truncated(0, FullHeaderSize, "header")
	}

	mod, code := int64(endOfModule), int64(endOfCode)
	codeSize := code - FullHeaderSize
	switch {
	case codeSize < 0:
		return nil, fmt.Errorf("%w: endOfCode 0x%X precedes the %d-byte header", ErrMalformedHeader, endOfCode, FullHeaderSize)
	case code > mod:
		return nil, fmt.Errorf("%w: endOfCode 0x%X exceeds endOfModule 0x%X", ErrMalformedHeader, endOfCode, endOfModule)
	case code%WordSize != 0 || mod%WordSize != 0:
		return nil, fmt.Errorf("%w: offsets 0x%X/0x%X are not word aligned", ErrMalformedHeader, endOfModule, endOfCode)
	}

	l := &Layout{
		Format:      FormatFull,
		EndOfModule: endOfModule,
		EndOfCode:   endOfCode,
		CodeSize:    int(codeSize),
		CodeStart:   FullHeaderSize,
		CodeEnd:     int(code),
		ModuleEnd:   int(mod),
		TotalBytes:  total,
	}

	if code > int64(total) {
		l.CodeEnd = total
	}
	if mod > int64(total) {
		l.ModuleEnd = total
		return l, truncated(total, int(mod)-total, "module")
	}
	return l, nil
}
