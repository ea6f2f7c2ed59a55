package analysis

import (
	"errors"
	"fmt"

	"merlview/internal/disasm"
	"merlview/internal/logging"
	"merlview/internal/merlx"
)

// Analyzer builds reports. The zero value is not usable; call NewAnalyzer.
type Analyzer struct {
	Symbols   *SymbolParser
	Detectors *DetectorChain
}

// NewAnalyzer returns an analyzer with the default symbol parser and the given detectors.
func NewAnalyzer(detectors ...Detector) *Analyzer {
	return &Analyzer{
		Symbols:   NewSymbolParser(),
		Detectors: NewDetectorChain(detectors...),
	}
}

// Analyze is NewAnalyzer().Analyze(data).
func Analyze(data []byte) (*Report, error) {
	return NewAnalyzer().Analyze(data)
}

// Analyze decodes data. The returned report is never nil: when err is non-nil
// it holds every row that could be built, and report.Err is err.
func (a *Analyzer) Analyze(data []byte) (*Report, error) {
	return a.AnalyzeStream(merlx.NewStream(data))
}

// AnalyzeStream is Analyze over an already opened stream.
func (a *Analyzer) AnalyzeStream(s *merlx.Stream) (*Report, error) {
	r := &Report{TotalBytes: s.Len()}
	var errs []error

	if s.HasPartial() {
		off, rest := s.Partial()
		errs = append(errs, merlx.Truncated(off, merlx.WordSize, fmt.Sprintf("trailing word (%d of 4 bytes)", len(rest))))
	}

	layout, err := merlx.Detect(s)
	if err != nil {
		errs = append(errs, err)
	}
	if layout == nil {
		r.Rows = unanalyzedRows(s, 0)
		r.Rows = appendPartial(r.Rows, s)
		r.Err = joinErrors(errs)
		return r, r.Err
	}
	r.Layout = layout

	if logging.IsDebug() {
		logging.Default().Debug("detected layout",
			"format", layout.Format,
			"codeStart", layout.CodeStart,
			"codeEnd", layout.CodeEnd,
			"moduleEnd", layout.ModuleEnd)
	}

	rows := headerRows(s, layout)
	rows = append(rows, codeRows(s, layout)...)
	if a.Detectors != nil {
		rows = a.Detectors.Detect(rows)
	}

	switch layout.Format {
	case merlx.FormatSimplified:
		rows = append(rows, endMarkerRow(s, layout.CodeEnd))
	default:
		parser := a.Symbols
		if parser == nil {
			parser = NewSymbolParser()
		}
		table, err := parser.Parse(s, layout.CodeEnd, layout.ModuleEnd)
		moduleTruncated := layout.ModuleEnd < int(layout.EndOfModule)
		if err != nil && !(moduleTruncated && errors.Is(err, errMissingEndMarker)) {
			errs = append(errs, err)
		}
		r.Symbols = table
		rows = append(rows, symbolRows(s, table)...)
	}

	rows = append(rows, unanalyzedRows(s, layout.ModuleEnd)...)
	rows = appendPartial(rows, s)

	r.Rows = rows
	r.Err = joinErrors(errs)
	return r, r.Err
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// SplitErrors flattens an error produced by Analyze into its diagnostics.
func SplitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func headerRows(s *merlx.Stream, l *merlx.Layout) []Row {
	descs := []string{"MERL Magic Number", "End of Module", "End of Code"}
	if l.Format == merlx.FormatSimplified {
		descs = []string{"MERL Magic Number", "Code Size"}
	}
	rows := make([]Row, 0, len(descs))
	for i, desc := range descs {
		off := i * merlx.WordSize
		w, err := s.WordAt(off)
		if err != nil {
			break
		}
		rows = append(rows, Row{
			Offset:      off,
			Raw:         w,
			Region:      RegionHeader,
			Category:    CategoryHeader,
			Description: desc,
		})
	}
	return rows
}

func codeRows(s *merlx.Stream, l *merlx.Layout) []Row {
	var rows []Row
	for off := l.CodeStart; off < l.CodeEnd; off += merlx.WordSize {
		w, err := s.WordAt(off)
		if err != nil {
			break
		}
		inst := disasm.Decode(w)
		row := Row{
			Offset:   off,
			Raw:      w,
			Region:   RegionCode,
			Inst:     inst,
			Assembly: inst.String(),
		}
		if inst.Category() == disasm.CategoryData {
			row.Category = CategoryData
			row.Description = "Data Word"
		} else {
			row.Category = CategoryCode
			row.Description = inst.Description()
		}
		rows = append(rows, row)
	}
	return rows
}

func endMarkerRow(s *merlx.Stream, off int) Row {
	w, _ := s.WordAt(off)
	return Row{
		Offset:      off,
		Raw:         w,
		Region:      RegionSymbols,
		Category:    CategoryFooter,
		Description: "MERL End Marker",
	}
}

// symbolRows renders [t.Start, t.End) one row per word.
func symbolRows(s *merlx.Stream, t *SymbolTable) []Row {
	byOffset := make(map[int]Row)
	for _, e := range t.Entries {
		for _, row := range entryRows(e) {
			byOffset[row.Offset] = row
		}
	}
	for _, off := range t.Stray {
		w, _ := s.WordAt(off)
		inst := disasm.Decode(w)
		byOffset[off] = Row{
			Offset:      off,
			Raw:         w,
			Region:      RegionSymbols,
			Category:    CategoryUnknown,
			Description: "Unrecognized Word",
			Assembly:    inst.String(),
			Inst:        inst,
		}
	}

	leftover := "Unparsed Word"
	if t.Terminated() {
		leftover = "After End Marker"
	}

	var rows []Row
	for off := t.Start; off < t.End; off += merlx.WordSize {
		if row, ok := byOffset[off]; ok {
			rows = append(rows, row)
			continue
		}
		w, err := s.WordAt(off)
		if err != nil {
			break
		}
		rows = append(rows, Row{
			Offset:      off,
			Raw:         w,
			Region:      RegionSymbols,
			Category:    CategoryUnknown,
			Description: leftover,
		})
	}
	return rows
}

// entryRows expands an entry into per-word child rows.
func entryRows(e Entry) []Row {
	row := func(off int, raw uint32, cat Category, desc, asm string) Row {
		return Row{Offset: off, Raw: raw, Region: RegionSymbols, Category: cat, Description: desc, Assembly: asm}
	}
	addr := row(e.Offset+4, e.Address, CategoryData, "Address", fmt.Sprintf("Address: 0x%08X", e.Address))

	switch e.Kind {
	case EntryEndMarker:
		return []Row{row(e.Offset, merlx.EndMarker, CategoryFooter, "MERL End Marker", "")}
	case EntryRelocation:
		return []Row{
			row(e.Offset, TagREL, CategoryREL, "REL Entry", "Relocation Entry"),
			addr,
		}
	}

	tag, cat, label := TagESR, CategoryESR, "External Symbol Reference"
	if e.Kind == EntryExternalDefinition {
		tag, cat, label = TagESD, CategoryESD, "External Symbol Definition"
	}
	rows := []Row{
		row(e.Offset, tag, cat, e.Kind.String()+" Entry", label+": "+EscapeUnprintable(e.Name)),
		addr,
		row(e.Offset+8, e.Length, CategoryData, "Length", fmt.Sprintf("Length: %d", e.Length)),
	}
	chars := []rune(e.Name)
	for i, w := range e.Chars {
		asm := ""
		if i < len(chars) {
			asm = QuoteChar(chars[i])
		}
		rows = append(rows, row(e.Offset+symbolHeaderSize+i*merlx.WordSize, w, CategoryData, "Character", asm))
	}
	return rows
}

// unanalyzedRows covers complete words from offset start to the end of the buffer.
func unanalyzedRows(s *merlx.Stream, start int) []Row {
	desc := "Beyond Module End"
	if start == 0 {
		desc = "Unanalyzed Word"
	}
	var rows []Row
	for off := start; off+merlx.WordSize <= s.AlignedLen(); off += merlx.WordSize {
		w, _ := s.WordAt(off)
		rows = append(rows, Row{
			Offset:      off,
			Raw:         w,
			Region:      RegionTrailer,
			Category:    CategoryUnknown,
			Description: desc,
		})
	}
	return rows
}

func appendPartial(rows []Row, s *merlx.Stream) []Row {
	if !s.HasPartial() {
		return rows
	}
	off, rest := s.Partial()
	return append(rows, Row{
		Offset:      off,
		Partial:     append([]byte(nil), rest...),
		Region:      RegionTrailer,
		Category:    CategoryPadding,
		Description: "Remaining bytes",
	})
}
