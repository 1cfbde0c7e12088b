package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/ecodash/internal/analysis"
	"github.com/san-kum/ecodash/internal/chart"
	"github.com/san-kum/ecodash/internal/filter"
	"github.com/san-kum/ecodash/internal/observe"
	"github.com/san-kum/ecodash/internal/render"
)

// Saver persists a generated table; *storage.Store satisfies it.
type Saver interface {
	Save(p observe.Params, seed int64, tbl *observe.Table, metrics map[string]float64) (string, error)
}

type Options struct {
	Title     string
	Params    observe.Params
	Seed      int64
	Selection []string
	Theme     string
	Saver     Saver
}

// Model is the interactive dashboard. The table is regenerated only on
// explicit request; every other key just re-renders from the same table.
type Model struct {
	opts      Options
	seed      int64
	table     *observe.Table
	summary   *analysis.Summary
	sel       filter.Selection
	dash      *chart.Dashboard
	cursor    int
	theme     Theme
	st        styles
	width     int
	height    int
	showTable bool
	showHelp  bool
	status    string
	warning   string
	err       error
}

// NewModel generates the first table and validates the starting selection.
// A zero seed is drawn from the clock once, so saved runs record the seed
// their table came from.
func NewModel(opts Options) (Model, error) {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	m := Model{
		opts:   opts,
		seed:   opts.Seed,
		theme:  GetTheme(opts.Theme),
		width:  120,
		height: 40,
	}
	m.st = newStyles(m.theme)

	if err := m.generate(); err != nil {
		return Model{}, err
	}
	if len(opts.Selection) > 0 {
		sel, err := filter.New(m.table.SpeciesNames(), opts.Selection)
		if err != nil {
			return Model{}, err
		}
		m.sel = sel
	} else {
		m.sel = filter.Default(m.table.SpeciesNames())
	}
	m.rebuild()
	return m, nil
}

func (m *Model) generate() error {
	tbl, err := observe.Generate(m.opts.Params, observe.NewSource(m.seed))
	if err != nil {
		return err
	}
	sum, err := analysis.Summarize(tbl)
	if err != nil {
		return err
	}
	m.table, m.summary = tbl, sum
	return nil
}

func (m *Model) rebuild() {
	d, err := chart.Build(m.table, m.sel)
	if err != nil {
		m.err = err
		return
	}
	m.dash, m.err = d, nil
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	species := m.table.SpeciesNames()
	m.status, m.warning = "", ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(species)-1 {
			m.cursor++
		}
	case " ", "enter", "x":
		if len(species) == 0 {
			break
		}
		sel, err := m.sel.Toggle(species[m.cursor])
		if err != nil {
			m.err = err
			break
		}
		m.sel = sel
		m.rebuild()
	case "a":
		m.sel, _ = filter.New(species, species)
		m.rebuild()
	case "n":
		m.sel, _ = filter.New(species, nil)
		m.rebuild()
	case "r":
		m.seed++
		if m.seed == 0 {
			m.seed++
		}
		if err := m.generate(); err != nil {
			m.err = err
			break
		}
		m.rebuild()
		m.status = "regenerated"
	case "s":
		m.save()
	case "d":
		m.showTable = !m.showTable
	case "t":
		m.theme = NextTheme(m.theme)
		m.st = newStyles(m.theme)
		m.status = "theme: " + m.theme.Name
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) save() {
	if m.opts.Saver == nil {
		m.warning = "saving disabled: no data directory"
		return
	}
	id, err := m.opts.Saver.Save(m.opts.Params, m.seed, m.table, m.summary.Metrics())
	if err != nil {
		m.err = err
		return
	}
	m.status = "saved " + id
}

// Selection returns the species currently shown.
func (m Model) Selection() filter.Selection { return m.sel }

// Dashboard returns the charts for the current table and selection.
func (m Model) Dashboard() *chart.Dashboard { return m.dash }

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.st.title.Render(m.opts.Title) + "\n")
	b.WriteString(m.st.subtitle.Render("How rising temperature affects local biodiversity. Pick species on the left.") + "\n\n")

	if m.showHelp {
		b.WriteString(m.helpView())
		return b.String()
	}

	chartWidth := max((m.width-34)/2-14, 20)
	opts := render.TextOptions{Width: chartWidth, Height: 8, Color: true}

	left := m.st.panel.Render(m.speciesView())
	var top string
	if m.dash != nil {
		temp := m.st.panel.Render(m.st.header.Render("Temperature by year") + "\n" + render.Text(m.dash.Temperature, opts))
		pop := m.st.panel.Render(m.st.header.Render("Species population") + "\n" + render.Text(m.dash.Species, opts))
		top = lipgloss.JoinHorizontal(lipgloss.Top, left, temp, pop)
	} else {
		top = left
	}
	b.WriteString(top + "\n")
	b.WriteString(m.st.separator(lipgloss.Width(top)) + "\n")

	if m.dash != nil {
		corrOpts := render.TextOptions{Width: max(lipgloss.Width(top)-20, 30), Height: 12}
		b.WriteString(m.st.header.Render("Temperature vs population") + "\n")
		b.WriteString(render.Text(m.dash.Correlation, corrOpts))
		if sp, ok := m.summary.Get(m.dash.Correlation.YLabel); ok {
			b.WriteString("\n" + m.st.insight.Render(analysis.Insight(sp)) + "\n")
		}
	}

	if m.showTable {
		b.WriteString("\n" + m.tableView())
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(m.st.err.Render("error: "+m.err.Error()) + "\n")
	} else if m.warning != "" {
		b.WriteString(m.st.warn.Render(m.warning) + "\n")
	} else if m.status != "" {
		b.WriteString(m.st.status.Render(m.status) + "\n")
	}
	b.WriteString(m.st.keyHints("j/k", "move", "space", "toggle", "a/n", "all/none", "r", "regenerate", "s", "save", "d", "data", "t", "theme", "?", "help", "q", "quit"))
	return b.String()
}

func (m Model) speciesView() string {
	var b strings.Builder
	b.WriteString(m.st.header.Render("Species") + "\n")
	for i, name := range m.table.SpeciesNames() {
		pointer := "  "
		if i == m.cursor {
			pointer = m.st.cursor.Render("▸ ")
		}
		box := m.st.subtle.Render("[ ]")
		if m.sel.Contains(name) {
			box = m.st.checked.Render("[x]")
		}
		b.WriteString(pointer + box + " " + m.st.item.Render(name) + "\n")
		if vals, err := m.table.Column(name); err == nil {
			b.WriteString("      " + m.st.sparkline(vals, 20) + "\n")
		}
	}

	b.WriteString("\n")
	years := m.table.Years()
	b.WriteString(m.st.label.Render("years") + m.st.value.Render(fmt.Sprintf("%d-%d", years[0], years[len(years)-1])) + "\n")
	b.WriteString(m.st.label.Render("warming") + m.st.value.Render(fmt.Sprintf("%+.2f °C", m.summary.Warming)) + "\n")
	b.WriteString(m.st.label.Render("seed") + m.st.value.Render(fmt.Sprintf("%d", m.seed)) + "\n")
	b.WriteString(m.st.label.Render("theme") + m.st.value.Render(m.theme.Name))
	return b.String()
}

func (m Model) tableView() string {
	var b strings.Builder
	cols := m.table.Columns()
	b.WriteString(m.st.header.Render(strings.Join(cols, " | ")) + "\n")
	species := m.table.SpeciesNames()
	for _, r := range m.table.Rows() {
		line := fmt.Sprintf("%4d  %6.2f", r.Year, r.Temperature)
		for _, name := range species {
			line += fmt.Sprintf("  %8.1f", r.Populations[name])
		}
		b.WriteString(m.st.item.Render(line) + "\n")
	}
	return b.String()
}

func (m Model) helpView() string {
	rows := [][2]string{
		{"j / k", "move between species"},
		{"space", "toggle the species under the cursor"},
		{"a / n", "select all / none"},
		{"r", "regenerate data with the next seed"},
		{"s", "save the current table as a run"},
		{"d", "show or hide the data table"},
		{"t", "cycle color theme"},
		{"?", "close this help"},
		{"q", "quit"},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(m.st.label.Render(r[0]) + m.st.item.Render(r[1]) + "\n")
	}
	return m.st.panel.Render(b.String())
}

// Run starts the dashboard in the alternate screen.
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
