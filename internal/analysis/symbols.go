package analysis

import (
	"fmt"
	"math"

	"merlview/internal/logging"
	"merlview/internal/merlx"
)

var errMissingEndMarker = fmt.Errorf("%w: missing end marker", merlx.ErrMalformedSymbolTable)

// SymbolTable is the parsed post-code region of a Full module.
type SymbolTable struct {
	Start   int     // first byte of the region (endOfCode)
	End     int     // declared module end, clamped to the buffer
	Entries []Entry // in file order, the end marker last when present
	Stray   []int   // offsets of words skipped as unrecognized tags
}

// Terminated reports whether the end marker was found.
func (t *SymbolTable) Terminated() bool {
	n := len(t.Entries)
	return n > 0 && t.Entries[n-1].Kind == EntryEndMarker
}

// SymbolParser reads REL, ESR and ESD entries.
type SymbolParser struct {
	DecodeName    NameDecoder
	MaxStrayWords int
}

// NewSymbolParser returns a parser using low-byte names and the default stray cap.
func NewSymbolParser() *SymbolParser {
	return &SymbolParser{DecodeName: LowByte, MaxStrayWords: DefaultMaxStrayWords}
}

// Parse walks [start, end) of s. On error the table still holds every entry
// parsed before the failure.
func (p *SymbolParser) Parse(s *merlx.Stream, start, end int) (*SymbolTable, error) {
	if limit := s.AlignedLen(); end > limit {
		end = limit
	}
	maxStray := p.MaxStrayWords
	if maxStray <= 0 {
		maxStray = DefaultMaxStrayWords
	}

	t := &SymbolTable{Start: start, End: end}
	pos := start
	for pos < end {
		tag, err := s.WordAt(pos)
		if err != nil {
			return t, err
		}

		switch tag {
		case merlx.EndMarker:
			t.Entries = append(t.Entries, Entry{Kind: EntryEndMarker, Offset: pos})
			if pos+merlx.WordSize < end {
				return t, fmt.Errorf("%w: end marker at 0x%08X, module ends at 0x%08X",
					merlx.ErrMalformedSymbolTable, pos, end)
			}
			return t, nil

		case TagREL:
			if pos+relSize > end {
				return t, merlx.Truncated(pos, relSize, "REL entry")
			}
			addr, _ := s.WordAt(pos + 4)
			t.Entries = append(t.Entries, Entry{Kind: EntryRelocation, Offset: pos, Address: addr})
			pos += relSize

		case TagESR, TagESD:
			e, err := p.parseSymbol(s, pos, end, tag)
			if err != nil {
				return t, err
			}
			t.Entries = append(t.Entries, e)
			pos += e.Size()

		default:
			t.Stray = append(t.Stray, pos)
			if logging.IsDebug() {
				logging.Default().Debug("skipping stray word", "offset", fmt.Sprintf("0x%08X", pos), "value", fmt.Sprintf("0x%08X", tag))
			}
			if len(t.Stray) > maxStray {
				return t, fmt.Errorf("%w: more than %d unrecognized words (last at 0x%08X)",
					merlx.ErrMalformedSymbolTable, maxStray, pos)
			}
			pos += merlx.WordSize
		}
	}

	return t, fmt.Errorf("%w before offset 0x%08X", errMissingEndMarker, end)
}

func (p *SymbolParser) parseSymbol(s *merlx.Stream, pos, end int, tag uint32) (Entry, error) {
	kind, what := EntryExternalReference, "ESR entry"
	if tag == TagESD {
		kind, what = EntryExternalDefinition, "ESD entry"
	}

	if pos+symbolHeaderSize > end {
		return Entry{}, merlx.Truncated(pos, symbolHeaderSize, what)
	}
	addr, _ := s.WordAt(pos + 4)
	length, _ := s.WordAt(pos + 8)

	// Compare in int64 so a huge length cannot wrap.
	need := int64(symbolHeaderSize) + int64(length)*merlx.WordSize
	if int64(pos)+need > int64(end) {
		return Entry{}, merlx.Truncated(pos, int(min(need, math.MaxInt32)), what)
	}

	chars := make([]uint32, length)
	off := pos + symbolHeaderSize
	for i := range chars {
		chars[i], _ = s.WordAt(off)
		off += merlx.WordSize
	}

	return Entry{
		Kind:    kind,
		Offset:  pos,
		Address: addr,
		Length:  length,
		Name:    DecodeName(chars, p.DecodeName),
		Chars:   chars,
	}, nil
}
