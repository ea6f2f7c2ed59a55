package detectors

import (
	"testing"

	"merlview/internal/analysis"
	"merlview/internal/disasm"
)

func codeRow(w uint32) analysis.Row {
	inst := disasm.Decode(w)
	cat := analysis.CategoryCode
	if inst.Category() == disasm.CategoryData {
		cat = analysis.CategoryData
	}
	return analysis.Row{
		Offset:      12,
		Raw:         w,
		Region:      analysis.RegionCode,
		Category:    cat,
		Description: inst.Description(),
		Assembly:    inst.String(),
		Inst:        inst,
	}
}

func TestDataWordDetector(t *testing.T) {
	tests := []struct {
		name     string
		word     uint32
		wantData bool
		wantAsm  string
	}{
		{"add stays code", 0x00221820, false, "add $3, $1, $2"},
		{"small constant", 0x00000020, true, ".word 0x00000020"},
		{"zero", 0x00000000, true, ".word 0x00000000"},
		{"funct 1 already data", 0x00221801, true, ".word 0x00221801"},
		{"funct 36 already data", 0x00221824, true, ".word 0x00221824"},
		{"jr $31", 0x03E00008, false, "jr $31"},
		{"lw is never data", 0x8C220004, false, "lw $2, 4($1)"},
		{"unknown funct stays data", 0x0022183F, true, ".word 0x0022183F"},
	}

	d := NewDataWordDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect([]analysis.Row{codeRow(tt.word)})
			if len(got) != 1 {
				t.Fatalf("Detect returned %d rows, want 1", len(got))
			}
			row := got[0]
			if isData := row.Category == analysis.CategoryData; isData != tt.wantData {
				t.Errorf("category = %v, want data=%v", row.Category, tt.wantData)
			}
			if row.Assembly != tt.wantAsm {
				t.Errorf("assembly = %q, want %q", row.Assembly, tt.wantAsm)
			}
			if row.Raw != tt.word || row.Offset != 12 {
				t.Errorf("detector changed offset/raw: %+v", row)
			}
		})
	}
}

func TestDataWordDetectorChecks(t *testing.T) {
	const add0 = 0x00000020 // add $0, $0, $0
	const add = 0x00221820  // add $3, $1, $2

	tests := []struct {
		name     string
		d        *DataWordDetector
		word     uint32
		wantData bool
	}{
		{"threshold alone", &DataWordDetector{Threshold: 0x1000}, add0, true},
		{"threshold leaves large words", &DataWordDetector{Threshold: 0x1000}, add, false},
		{"threshold disabled", &DataWordDetector{}, add0, false},
		{"known funct listed", &DataWordDetector{NonsenseFuncts: map[uint8]bool{0x20: true}}, add, true},
		{"known funct not listed", &DataWordDetector{NonsenseFuncts: map[uint8]bool{0x24: true}}, add, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if before := codeRow(tt.word); before.Category != analysis.CategoryCode {
				t.Fatalf("0x%08X does not decode as code", tt.word)
			}
			got := tt.d.Detect([]analysis.Row{codeRow(tt.word)})[0]
			if isData := got.Category == analysis.CategoryData; isData != tt.wantData {
				t.Errorf("category = %v, want data=%v", got.Category, tt.wantData)
			}
		})
	}
}

func TestDataWordDetectorIgnoresOtherRegions(t *testing.T) {
	row := codeRow(0x00000020)
	row.Region = analysis.RegionSymbols
	row.Category = analysis.CategoryUnknown
	row.Description = "Unrecognized Word"

	got := NewDataWordDetector().Detect([]analysis.Row{row})
	if got[0].Category != analysis.CategoryUnknown || got[0].Description != "Unrecognized Word" {
		t.Errorf("symbol region row was reclassified: %+v", got[0])
	}
}

func TestDetectorInAnalyzer(t *testing.T) {
	// Full module: header, add, constant 0x20, unknown funct 0x3F, END.
	data := words(0x10000002, 0x0000001C, 0x00000018, 0x00221820, 0x00000020, 0x0022183F, 0x10000001)

	r, err := analysis.NewAnalyzer(Default()...).Analyze(data)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := map[int]analysis.Category{
		12: analysis.CategoryCode,
		16: analysis.CategoryData,
		20: analysis.CategoryData,
	}
	for _, row := range r.Rows {
		if cat, ok := want[row.Offset]; ok && row.Category != cat {
			t.Errorf("row 0x%X category = %v, want %v", row.Offset, row.Category, cat)
		}
	}
	if got := r.Rows[5].Assembly; got != ".word 0x0022183F" {
		t.Errorf("unknown funct rendered as %q", got)
	}
}

func words(ws ...uint32) []byte {
	b := make([]byte, 0, len(ws)*4)
	for _, w := range ws {
		b = append(b, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
	}
	return b
}
