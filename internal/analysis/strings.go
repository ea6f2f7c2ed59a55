package analysis

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NameDecoder turns one name word of an ESR/ESD entry into a character.
//
// The producer writes one character per word. Whether readers should keep
// only the low byte or the whole word as a code point is not settled, so the
// choice is a single swappable function.
type NameDecoder func(word uint32) rune

// LowByte keeps the low eight bits of the word.
func LowByte(word uint32) rune {
	return rune(word & 0xFF)
}

// CodePoint reads the word as a Unicode code point. Values that are not
// valid code points decode as utf8.RuneError.
func CodePoint(word uint32) rune {
	if word > unicode.MaxRune {
		return utf8.RuneError
	}
	r := rune(word)
	if !utf8.ValidRune(r) {
		return utf8.RuneError
	}
	return r
}

// NameDecoderFor resolves a decoder by its flag name.
func NameDecoderFor(name string) (NameDecoder, error) {
	switch strings.ToLower(name) {
	case "", "lowbyte", "low-byte", "byte":
		return LowByte, nil
	case "codepoint", "code-point", "rune":
		return CodePoint, nil
	default:
		return nil, fmt.Errorf("unknown name decoding %q (want lowbyte or codepoint)", name)
	}
}

// DecodeName builds a symbol name from its words.
func DecodeName(words []uint32, decode NameDecoder) string {
	if decode == nil {
		decode = LowByte
	}
	var sb strings.Builder
	for _, w := range words {
		sb.WriteRune(decode(w))
	}
	return sb.String()
}

// EscapeUnprintable returns s with printable runes preserved. Control and
// unprintable runes are escaped as \uXXXX, invalid UTF-8 as \xXX.
func EscapeUnprintable(s string) string {
	b := []byte(s)
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteString(fmt.Sprintf("\\x%02X", b[0]))
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteString(fmt.Sprintf("\\u%04X", r))
		}
		b = b[size:]
	}
	return sb.String()
}

// QuoteChar renders a single decoded name character for the listing.
func QuoteChar(r rune) string {
	return "'" + EscapeUnprintable(string(r)) + "'"
}
