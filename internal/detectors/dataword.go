// Package detectors reclassifies listing rows that decode as instructions but
// are more likely literal data placed in the code segment.
package detectors

import (
	"merlview/internal/analysis"
	"merlview/internal/disasm"
)

// DataWordDetector marks opcode-0 words as data when their funct field is one
// no assembled program emits, or when the whole word is small enough to be a
// constant. It only looks at code-region rows.
//
// The default funct set (0, 1, 36) has no entry in the decoder table, so those
// words already arrive as data; the set only bites for functs the decoder
// knows. With the defaults, Threshold is what reclassifies rows.
type DataWordDetector struct {
	NonsenseFuncts map[uint8]bool
	Threshold      uint32 // raw values below this are data; 0 disables the check
}

// NewDataWordDetector creates a detector with funct 0, 1 and 36 and a 0x1000 threshold.
func NewDataWordDetector() *DataWordDetector {
	return &DataWordDetector{
		NonsenseFuncts: map[uint8]bool{0: true, 1: true, 36: true},
		Threshold:      0x1000,
	}
}

// Default returns the detectors run by the CLI.
func Default() []analysis.Detector {
	return []analysis.Detector{NewDataWordDetector()}
}

func (d *DataWordDetector) Detect(rows []analysis.Row) []analysis.Row {
	result := make([]analysis.Row, 0, len(rows))
	for _, row := range rows {
		if row.Region == analysis.RegionCode && row.Category == analysis.CategoryCode && d.isData(row.Raw) {
			row.Category = analysis.CategoryData
			row.Description = "Data Word"
			row.Assembly = disasm.FormatWord(row.Raw)
		}
		result = append(result, row)
	}
	return result
}

func (d *DataWordDetector) isData(w uint32) bool {
	if disasm.Opcode(w) != 0 {
		return false
	}
	return d.NonsenseFuncts[disasm.Funct(w)] || w < d.Threshold
}
