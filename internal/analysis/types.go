package analysis

import (
	"merlview/internal/disasm"
	"merlview/internal/merlx"
)

// Category labels a row in the listing.
type Category int

const (
	CategoryHeader Category = iota
	CategoryCode
	CategoryData
	CategoryREL
	CategoryESR
	CategoryESD
	CategoryFooter
	CategoryUnknown
	CategoryPadding
)

var categoryNames = [...]string{
	CategoryHeader:  "Header",
	CategoryCode:    "Code",
	CategoryData:    "Data",
	CategoryREL:     "REL",
	CategoryESR:     "ESR",
	CategoryESD:     "ESD",
	CategoryFooter:  "Footer",
	CategoryUnknown: "Unknown",
	CategoryPadding: "Padding",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Unknown"
	}
	return categoryNames[c]
}

// Region is the part of the module a row belongs to.
type Region int

const (
	RegionHeader Region = iota
	RegionCode
	RegionSymbols
	RegionTrailer // past the declared module end, or unanalyzed
)

// Row is one word of the module with its interpretation.
type Row struct {
	Offset      int
	Raw         uint32
	Partial     []byte // bytes of an incomplete trailing word; Raw is meaningless when set
	Region      Region
	Category    Category
	Description string
	Assembly    string
	Inst        disasm.Instruction // advisory decoding for code and stray words
}

// Incomplete reports whether the row stands for a trailing partial word.
func (r Row) Incomplete() bool {
	return r.Partial != nil
}

// EntryKind is the variant of a symbol table entry.
type EntryKind int

const (
	EntryRelocation EntryKind = iota
	EntryExternalReference
	EntryExternalDefinition
	EntryEndMarker
)

func (k EntryKind) String() string {
	switch k {
	case EntryRelocation:
		return "REL"
	case EntryExternalReference:
		return "ESR"
	case EntryExternalDefinition:
		return "ESD"
	default:
		return "END"
	}
}

// Entry is one record of the symbol table region.
type Entry struct {
	Kind    EntryKind
	Offset  int // offset of the tag word
	Address uint32
	Length  uint32   // ESR/ESD only
	Name    string   // ESR/ESD only
	Chars   []uint32 // raw name words, ESR/ESD only
}

// Size returns the number of bytes the entry occupies.
func (e Entry) Size() int {
	switch e.Kind {
	case EntryRelocation:
		return relSize
	case EntryExternalReference, EntryExternalDefinition:
		return symbolHeaderSize + len(e.Chars)*merlx.WordSize
	default:
		return merlx.WordSize
	}
}

// Report is the result of analyzing one module. It is built once and never
// modified afterwards.
type Report struct {
	Layout     *merlx.Layout // nil when the header could not be interpreted
	Symbols    *SymbolTable  // nil when the module has no symbol table region
	Rows       []Row
	TotalBytes int
	Err        error
}

// Entries returns the REL, ESR and ESD entries, without the end marker.
func (r *Report) Entries() []Entry {
	if r.Symbols == nil {
		return nil
	}
	var out []Entry
	for _, e := range r.Symbols.Entries {
		if e.Kind != EntryEndMarker {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many rows carry category c.
func (r *Report) CountCategory(c Category) int {
	n := 0
	for _, row := range r.Rows {
		if row.Category == c {
			n++
		}
	}
	return n
}
