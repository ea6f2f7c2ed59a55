// Package analysis turns a MERL module into an annotated, per-word listing:
// it parses the symbol table, builds rows for every word and renders them
// as a plain-text or Markdown table.
package analysis

// Entry tags of the symbol table region.
const (
	TagREL uint32 = 0x00000001
	TagESR uint32 = 0x00000011
	TagESD uint32 = 0x00000005
)

const (
	// DefaultMaxStrayWords bounds how many unrecognized words the symbol
	// table parser skips before giving up on the region.
	DefaultMaxStrayWords = 256

	// relSize is tag + address.
	relSize = 8
	// symbolHeaderSize is tag + address + length.
	symbolHeaderSize = 12
)
