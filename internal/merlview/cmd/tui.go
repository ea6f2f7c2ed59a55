package cmd

import (
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/ianlancetaylor/demangle"

	"merlview/internal/analysis"
	"merlview/internal/merlview/styles"
	"merlview/internal/ui/colorize"
)

type viewMode int

const (
	viewListing viewMode = iota
	viewSymbols
	viewDetails
)

type entryItem struct {
	entry      analysis.Entry
	display    string // demangled name, or the raw name when it is not mangled
	filterTerm string
}

func newEntryItem(e analysis.Entry) entryItem {
	display := ""
	if e.Kind != analysis.EntryRelocation {
		display = demangle.Filter(e.Name)
		if display == "" {
			display = e.Name
		}
		display = analysis.EscapeUnprintable(display)
	}
	return entryItem{
		entry:      e,
		display:    display,
		filterTerm: fmt.Sprintf("%s %x %x %s", e.Kind, e.Offset, e.Address, display),
	}
}

func (i entryItem) Title() string {
	return fmt.Sprintf("%s %08X %s", i.entry.Kind, i.entry.Address, i.display)
}

func (i entryItem) Description() string { return "" }

func (i entryItem) FilterValue() string {
	return i.filterTerm
}

// Custom item delegate for the symbols list
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(entryItem)
	if !ok {
		return
	}

	indicator := " "
	addrStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if index == m.Index() {
		indicator = ">"
		addrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	}

	kind := colorize.CategoryStyle(entryCategory(i.entry.Kind)).Render(fmt.Sprintf("%-3s", i.entry.Kind))
	fmt.Fprintf(w, " %s  %s  %s  %s",
		indicator,
		kind,
		addrStyle.Render(fmt.Sprintf("%08X", i.entry.Address)),
		i.display)
}

func entryCategory(k analysis.EntryKind) analysis.Category {
	switch k {
	case analysis.EntryRelocation:
		return analysis.CategoryREL
	case analysis.EntryExternalReference:
		return analysis.CategoryESR
	case analysis.EntryExternalDefinition:
		return analysis.CategoryESD
	default:
		return analysis.CategoryFooter
	}
}

type model struct {
	viewport    viewport.Model
	symbolsList list.Model
	details     viewport.Model
	spinner     spinner.Model
	mode        viewMode
	filepath    string
	opts        options
	report      *analysis.Report
	loadErr     error
	loading     bool
	focused     *analysis.Entry
	width       int
	height      int
}

type reportMsg struct {
	report *analysis.Report
	err    error
}

func analyzeCmd(path string, opts options) tea.Cmd {
	return func() tea.Msg {
		r, err := opts.analyzeFile(path)
		return reportMsg{report: r, err: err}
	}
}

func NewModel(filepath string, opts options) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	symbolsList := list.New([]list.Item{}, itemDelegate{}, 80, 24)
	symbolsList.SetShowStatusBar(false)
	symbolsList.SetFilteringEnabled(true)
	symbolsList.Title = "Symbols"
	symbolsList.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)
	symbolsList.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	dvp := viewport.New()
	dvp.SetWidth(80)
	dvp.SetHeight(24)

	m := model{
		viewport:    vp,
		symbolsList: symbolsList,
		details:     dvp,
		spinner:     s,
		mode:        viewListing,
		filepath:    filepath,
		opts:        opts,
		loading:     true,
		width:       80,
		height:      24,
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		analyzeCmd(m.filepath, m.opts),
		m.spinner.Tick,
	)
}

func (m model) symbolCount() int {
	if m.report == nil {
		return 0
	}
	return len(m.report.Entries())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case reportMsg:
		m.loading = false
		m.report = msg.report
		m.loadErr = msg.err
		m.updateSymbolsList()
		m.updateContent()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateContent()
		return m, cmd

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.symbolsList.SetWidth(msg.Width)
			m.symbolsList.SetHeight(msg.Height - 2)
			m.details.SetWidth(msg.Width)
			m.details.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		// While the list is filtering it owns every key except quit
		if m.mode == viewSymbols && m.symbolsList.FilterState() == list.Filtering {
			if s := msg.String(); s == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.mode = viewListing
			if m.focused != nil {
				m.focused = nil
				m.updateContent()
			}
			return m, nil
		case "s":
			if m.symbolCount() > 0 {
				m.mode = viewSymbols
			}
			return m, nil
		case "d":
			if m.report != nil {
				m.mode = viewDetails
			}
			return m, nil
		case "x":
			m.opts.render.ShowHex = !m.opts.render.ShowHex
			m.updateContent()
			return m, nil
		case "esc":
			if m.mode == viewListing && m.focused != nil {
				m.focused = nil
				m.updateContent()
				return m, nil
			}
		case "enter":
			if m.mode == viewSymbols {
				if item, ok := m.symbolsList.SelectedItem().(entryItem); ok {
					e := item.entry
					m.focused = &e
					m.mode = viewListing
					m.updateContent()
					m.viewport.GotoTop()
				}
				return m, nil
			}
		case "tab":
			m.mode = m.nextMode(1)
			return m, nil
		case "shift+tab":
			m.mode = m.nextMode(-1)
			return m, nil
		}
	}

	switch m.mode {
	case viewSymbols:
		m.symbolsList, cmd = m.symbolsList.Update(msg)
	case viewDetails:
		m.details, cmd = m.details.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// nextMode cycles through the views, skipping symbols when there are none.
func (m model) nextMode(step int) viewMode {
	if m.report == nil {
		return viewListing
	}
	modes := []viewMode{viewListing, viewDetails}
	if m.symbolCount() > 0 {
		modes = []viewMode{viewListing, viewSymbols, viewDetails}
	}
	cur := 0
	for i, v := range modes {
		if v == m.mode {
			cur = i
		}
	}
	return modes[(cur+step+len(modes))%len(modes)]
}

func (m model) View() string {
	var content string
	switch m.mode {
	case viewSymbols:
		content = m.symbolsList.View()
	case viewDetails:
		content = m.details.View()
	default:
		content = m.viewport.View()
	}

	var menu string
	switch m.mode {
	case viewSymbols:
		menu = " Enter: show words • R: listing • D: details • Tab: cycle • Q: quit "
	case viewDetails:
		menu = " R: listing • Tab: cycle • Q: quit "
	default:
		switch {
		case m.focused != nil:
			menu = " Esc: full listing • S: symbols • X: hex/dec • Q: quit "
		case m.symbolCount() > 0:
			menu = " S: symbols • D: details • X: hex/dec • Tab: cycle • Q: quit "
		default:
			menu = " D: details • X: hex/dec • Q: quit "
		}
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

func (m *model) updateContent() {
	m.viewport.SetContent(m.listingContent())
	m.details.SetContent(m.detailsContent())
}

func (m *model) relPath() string {
	rel := m.filepath
	if cwd, err := os.Getwd(); err == nil {
		if r, err := pathpkg.Rel(cwd, m.filepath); err == nil {
			rel = r
		}
	}
	return rel
}

// listingContent is the coloured listing, or the rows of the focused entry.
func (m *model) listingContent() string {
	if m.loading {
		return fmt.Sprintf("\n %s Analyzing %s...", m.spinner.View(), m.relPath())
	}
	if m.loadErr != nil {
		return fmt.Sprintf("\n Failed to load %s: %v", m.relPath(), m.loadErr)
	}

	ropts := m.opts.render
	var lines []string
	rows := m.report.Rows
	if m.focused != nil {
		lines = append(lines, " "+analysis.EntrySummary(*m.focused), "")
		rows = entryRowsOf(m.report, *m.focused)
	} else {
		lines = append(lines, fmt.Sprintf(" ; %s", m.relPath()), "")
	}

	lines = append(lines, " "+analysis.HeaderLine(ropts))
	for _, row := range rows {
		lines = append(lines, " "+colorize.ColorizeRow(row, ropts))
	}
	return strings.Join(lines, "\n")
}

// entryRowsOf returns the rows covering e's words.
func entryRowsOf(r *analysis.Report, e analysis.Entry) []analysis.Row {
	var out []analysis.Row
	end := e.Offset + e.Size()
	for _, row := range r.Rows {
		if row.Offset >= e.Offset && row.Offset < end {
			out = append(out, row)
		}
	}
	return out
}

// detailsContent renders the summary, symbol table and diagnostics with glamour.
func (m *model) detailsContent() string {
	if m.report == nil {
		return ""
	}
	ropts := m.opts.render
	ropts.Format = analysis.FormatMarkdown
	ropts.Title = pathpkg.Base(m.filepath)

	full := analysis.Render(m.report, ropts)
	// The contents table is already in the listing view.
	md := full
	if i := strings.Index(full, "## MERL File Contents"); i >= 0 {
		md = full[:i]
		if j := strings.Index(full[i:], "\n## "); j > 0 {
			md += full[i+j+1:]
		}
	}

	width := m.width
	if width == 0 {
		width = 80
	}
	return strings.TrimSuffix(styles.RenderMarkdown(md, width-2), "\n")
}

func (m *model) updateSymbolsList() {
	if m.report == nil {
		return
	}
	entries := m.report.Entries()
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, newEntryItem(e))
	}
	m.symbolsList.SetItems(items)
	m.symbolsList.Title = fmt.Sprintf("Symbols (%d total)", len(entries))
}
