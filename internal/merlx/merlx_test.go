package merlx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func words(ws ...uint32) []byte {
	b := make([]byte, 0, len(ws)*WordSize)
	for _, w := range ws {
		b = binary.BigEndian.AppendUint32(b, w)
	}
	return b
}

func TestStreamWordAt(t *testing.T) {
	s := NewStream(append(words(Magic, 0x1C), 0xAB, 0xCD))

	if got := s.LenWords(); got != 2 {
		t.Fatalf("LenWords = %d, want 2", got)
	}
	if !s.HasPartial() {
		t.Fatal("expected trailing partial word")
	}
	off, rest := s.Partial()
	if off != 8 || len(rest) != 2 {
		t.Errorf("Partial = (%d, %x), want (8, abcd)", off, rest)
	}

	w, err := s.WordAt(4)
	if err != nil {
		t.Fatalf("WordAt(4): %v", err)
	}
	if w != 0x1C {
		t.Errorf("WordAt(4) = 0x%X, want 0x1C", w)
	}

	_, err = s.WordAt(8)
	var te *TruncatedError
	if !errors.As(err, &te) {
		t.Fatalf("WordAt(8) error = %v, want TruncatedError", err)
	}
	if te.At != 8 {
		t.Errorf("TruncatedError.At = %d, want 8", te.At)
	}
	if !errors.Is(err, ErrTruncated) {
		t.Error("TruncatedError should match ErrTruncated")
	}

	_, err = s.WordAt(2)
	if err == nil || !strings.Contains(err.Error(), "unaligned offset 0x2") {
		t.Errorf("unaligned read error = %v", err)
	}
	for _, kind := range []error{ErrMalformedHeader, ErrTruncated, ErrInvalidMagic, ErrMalformedSymbolTable} {
		if errors.Is(err, kind) {
			t.Errorf("unaligned read error matches %v", kind)
		}
	}
	if _, err := s.WordAt(-4); err == nil {
		t.Error("negative offset should fail")
	}
	if got := s.RemainingBytes(6); got != 4 {
		t.Errorf("RemainingBytes(6) = %d, want 4", got)
	}
}

func TestReadFrom(t *testing.T) {
	s, err := ReadFrom(bytes.NewReader(append(words(Magic, EndMarker), 0xAB)))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if s.Path != "" || s.LenWords() != 2 || !s.HasPartial() {
		t.Errorf("stream = path %q, %d words, partial %v", s.Path, s.LenWords(), s.HasPartial())
	}
	if w, _ := s.WordAt(4); w != EndMarker {
		t.Errorf("WordAt(4) = 0x%08X, want end marker", w)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.merl")
	if err := os.WriteFile(path, words(Magic, 12, 0, EndMarker), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Path != path || s.Len() != 16 {
		t.Errorf("Open = {%q, %d}", s.Path, s.Len())
	}

	if _, err := Open(filepath.Join(dir, "missing.merl")); err == nil {
		t.Error("Open on a missing file should fail")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantErr   error
		format    Format
		codeStart int
		codeEnd   int
		moduleEnd int
		codeSize  int
	}{
		{
			name:      "full with one code word",
			data:      words(Magic, 20, 16, 0x00221820, EndMarker),
			format:    FormatFull,
			codeStart: 12,
			codeEnd:   16,
			moduleEnd: 20,
			codeSize:  4,
		},
		{
			name:      "simplified",
			data:      words(Magic, 8, 0x00221820, 0x03E00008, EndMarker),
			format:    FormatSimplified,
			codeStart: 8,
			codeEnd:   16,
			moduleEnd: 20,
			codeSize:  8,
		},
		{
			name:      "full whose last word is the end marker",
			data:      words(Magic, 16, 12, EndMarker),
			format:    FormatFull,
			codeStart: 12,
			codeEnd:   12,
			moduleEnd: 16,
		},
		{
			name:    "magic and end marker only",
			data:    words(Magic, EndMarker),
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "bad magic",
			data:    words(0xDEADBEEF, 12, 12, EndMarker),
			wantErr: ErrInvalidMagic,
		},
		{
			name:    "end of code before header",
			data:    words(Magic, 16, 8, EndMarker),
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "end of code after end of module",
			data:    words(Magic, 16, 20, 0, EndMarker),
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "unaligned end of code",
			data:    words(Magic, 20, 14, 0, EndMarker),
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "header cut short",
			data:    words(Magic, 20),
			wantErr: ErrTruncated,
		},
		{
			name:    "empty",
			data:    nil,
			wantErr: ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Detect(NewStream(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Detect error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if l.Format != tt.format {
				t.Errorf("Format = %v, want %v", l.Format, tt.format)
			}
			if l.CodeStart != tt.codeStart || l.CodeEnd != tt.codeEnd || l.ModuleEnd != tt.moduleEnd {
				t.Errorf("segments = [%d,%d) end %d, want [%d,%d) end %d",
					l.CodeStart, l.CodeEnd, l.ModuleEnd, tt.codeStart, tt.codeEnd, tt.moduleEnd)
			}
			if l.CodeSize != tt.codeSize {
				t.Errorf("CodeSize = %d, want %d", l.CodeSize, tt.codeSize)
			}
			if l.Format == FormatFull && int(l.EndOfCode)-FullHeaderSize != l.CodeSize {
				t.Errorf("endOfCode-12 = %d, CodeSize = %d", int(l.EndOfCode)-FullHeaderSize, l.CodeSize)
			}
		})
	}
}

func TestDetectClampsTruncatedModule(t *testing.T) {
	// endOfModule says 0x1C but the buffer is 24 bytes long.
	data := words(Magic, 0x1C, 0x0C, 0x20, 0x00220820, EndMarker)
	l, err := Detect(NewStream(data))

	var te *TruncatedError
	if !errors.As(err, &te) {
		t.Fatalf("Detect error = %v, want TruncatedError", err)
	}
	if te.At != 24 {
		t.Errorf("TruncatedError.At = %d, want 24", te.At)
	}
	if l == nil {
		t.Fatal("layout should survive a truncated module")
	}
	if l.Format != FormatFull || l.ModuleEnd != 24 || l.EndOfModule != 0x1C {
		t.Errorf("layout = %+v", l)
	}
}
