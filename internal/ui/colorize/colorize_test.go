package colorize

import (
	"strings"
	"testing"

	"merlview/internal/analysis"
)

func TestColorizeRowMatchesPlain(t *testing.T) {
	rows := []analysis.Row{
		{Offset: 0, Raw: 0x10000002, Category: analysis.CategoryHeader, Description: "MERL Magic Number"},
		{Offset: 12, Raw: 0x00221820, Category: analysis.CategoryCode, Description: "Add", Assembly: "add $3, $1, $2"},
		{Offset: 16, Raw: 0x00000011, Category: analysis.CategoryESR, Description: "ESR Entry", Assembly: "External Symbol Reference: main"},
		{Offset: 20, Partial: []byte{1}, Category: analysis.CategoryPadding, Description: "Remaining bytes"},
	}
	opts := analysis.DefaultRenderOptions()

	for _, row := range rows {
		t.Run(row.Description, func(t *testing.T) {
			got := StripANSI(ColorizeRow(row, opts))
			want := analysis.FormatRow(row, opts)
			if strings.TrimRight(got, " ") != want {
				t.Errorf("stripped row =\n%q\nwant\n%q", got, want)
			}
		})
	}
}

func TestNoColor(t *testing.T) {
	t.Setenv("MERLVIEW_NO_COLOR", "1")

	if Enabled() {
		t.Fatal("Enabled() = true with MERLVIEW_NO_COLOR set")
	}
	out, err := ColorizeAssembly("add $3, $1, $2")
	if err != nil || out != "add $3, $1, $2" {
		t.Errorf("ColorizeAssembly() = %q, %v; want input unchanged", out, err)
	}

	row := analysis.Row{Offset: 12, Raw: 0x00221820, Category: analysis.CategoryCode, Description: "Add", Assembly: "add $3, $1, $2"}
	if got := ColorizeRow(row, analysis.DefaultRenderOptions()); strings.Contains(got, "\x1b") {
		t.Errorf("ColorizeRow() emitted escapes: %q", got)
	}
}

func TestSetEnabled(t *testing.T) {
	SetEnabled(false)
	t.Cleanup(func() { SetEnabled(true) })
	if Enabled() {
		t.Error("Enabled() = true after SetEnabled(false)")
	}
}

func TestStripANSI(t *testing.T) {
	if got := StripANSI("\x1b[38;2;79;79;79m0000000C\x1b[0m add"); got != "0000000C add" {
		t.Errorf("StripANSI() = %q", got)
	}
}
