package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/project"
	"github.com/dd0wney/apwr-dropcalc/pkg/report"
	"github.com/dd0wney/apwr-dropcalc/pkg/topology"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

type view int

const (
	setupView view = iota
	hubsView
	resultsView
	summaryView
	viewCount
)

var viewNames = [viewCount]string{"Setup", "Hubs", "Results", "Summary"}

type editMode int

const (
	editNone editMode = iota
	editDistance
	editCurrents
)

type model struct {
	cfg        *config.Config
	calculator *calc.Calculator
	exporter   *report.Exporter

	currentView view
	inputs      []textinput.Model
	focus       int

	hubConfigs map[int]topology.HubConfig
	hubTable   table.Model
	hubInput   textinput.Model
	editing    editMode

	resultTable table.Model
	linkFilter  int // 0 shows every link

	result     *calc.Result
	invalid    validation.ValidationErrors
	help       help.Model
	keys       keyMap
	width      int
	height     int
	message    string
	messageErr bool
}

// exportedMsg reports the outcome of an export command.
type exportedMsg struct {
	paths []string
	err   error
}

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FFAA00")).
		Bold(false)
	t.SetStyles(s)
	return t
}

var hubColumns = []table.Column{
	{Title: "APWRHUB", Width: 12},
	{Title: "APWRLINK", Width: 12},
	{Title: "Anodes", Width: 7},
	{Title: "Current [mA]", Width: 13},
	{Title: "Distance [m]", Width: 13},
	{Title: "Mode", Width: 8},
}

func resultColumns() []table.Column {
	widths := []int{11, 11, 11, 12, 14, 11, 13, 24, 21, 12}
	cols := make([]table.Column, len(report.Columns))
	for i, title := range report.Columns {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

func initialModel(cfg *config.Config, calculator *calc.Calculator, exporter *report.Exporter) model {
	hi := textinput.New()
	hi.CharLimit = 200
	hi.Width = 50

	m := model{
		cfg:         cfg,
		calculator:  calculator,
		exporter:    exporter,
		currentView: setupView,
		inputs:      newForm(cfg.System, time.Now().Format(project.DateLayout)),
		hubConfigs:  make(map[int]topology.HubConfig),
		hubTable:    newTable(hubColumns, 12),
		hubInput:    hi,
		resultTable: newTable(resultColumns(), 15),
		help:        help.New(),
		keys:        keys,
	}
	m.recalculate()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case exportedMsg:
		if msg.err != nil {
			m.setMessage(true, "Export failed: %v", msg.err)
		} else {
			m.setMessage(false, "Exported %d file(s) to %s", len(msg.paths), m.cfg.Report.OutputDir)
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing != editNone {
			return m.updateHubEdit(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.switchView((m.currentView + 1) % viewCount)
			return m, nil

		case key.Matches(msg, m.keys.ShiftTab):
			m.switchView((m.currentView + viewCount - 1) % viewCount)
			return m, nil

		case key.Matches(msg, m.keys.Export):
			return m, m.exportCmd()
		}

		switch m.currentView {
		case setupView:
			switch {
			case key.Matches(msg, m.keys.Enter):
				m.recalculate()
				return m, nil
			case key.Matches(msg, m.keys.Down):
				m.focusField(m.focus + 1)
				return m, nil
			case key.Matches(msg, m.keys.Up):
				m.focusField(m.focus - 1)
				return m, nil
			}

		case hubsView:
			switch {
			case key.Matches(msg, m.keys.Distance):
				m.startHubEdit(editDistance)
				return m, textinput.Blink
			case key.Matches(msg, m.keys.Currents):
				m.startHubEdit(editCurrents)
				return m, textinput.Blink
			case key.Matches(msg, m.keys.Reset):
				m.resetHub()
				return m, nil
			}

		case resultsView:
			switch {
			case key.Matches(msg, m.keys.Right):
				m.cycleLink(1)
				return m, nil
			case key.Matches(msg, m.keys.Left):
				m.cycleLink(-1)
				return m, nil
			}
		}
	}

	// Update focused component
	switch m.currentView {
	case setupView:
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		cmds = append(cmds, cmd)
	case hubsView:
		m.hubTable, cmd = m.hubTable.Update(msg)
		cmds = append(cmds, cmd)
	case resultsView:
		m.resultTable, cmd = m.resultTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) setMessage(isErr bool, format string, args ...any) {
	m.message = fmt.Sprintf(format, args...)
	m.messageErr = isErr
}

func (m *model) switchView(v view) {
	m.currentView = v
	if v == setupView {
		m.inputs[m.focus].Focus()
	} else {
		m.inputs[m.focus].Blur()
	}
}

func (m *model) focusField(i int) {
	m.inputs[m.focus].Blur()
	m.focus = (i + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
}

// pruneHubConfigs drops overrides that no longer fit the anode count and
// returns how many were dropped.
func (m *model) pruneHubConfigs(totalAnodes int) int {
	perHub := topology.DefaultAnodesPerHub
	hubs := topology.HubCount(totalAnodes, perHub)
	dropped := 0
	for i, h := range m.hubConfigs {
		if i >= hubs {
			delete(m.hubConfigs, i)
			dropped++
			continue
		}
		if h.AnodeCurrentsMA != nil && len(h.AnodeCurrentsMA) != topology.AnodesOnHub(i, totalAnodes, perHub) {
			h.AnodeCurrentsMA = nil
			m.hubConfigs[i] = h
			dropped++
		}
	}
	return dropped
}

// recalculate runs a new pass from the form. Invalid input keeps no result.
func (m *model) recalculate() {
	dropped := 0
	if n, err := strconv.Atoi(formValue(m.inputs, fieldAnodes)); err == nil && n > 0 {
		dropped = m.pruneHubConfigs(n)
	}

	in, err := formInput(m.inputs, m.cfg.System, m.hubConfigs)
	if err == nil {
		m.result, err = m.calculator.Calculate(in)
	}
	if err != nil {
		m.result = nil
		m.invalid, _ = validation.AsValidationErrors(err)
		setRows(&m.hubTable, nil)
		setRows(&m.resultTable, nil)
		m.setMessage(true, "Invalid input: %v", err)
		return
	}

	m.invalid = nil
	if m.linkFilter > len(m.result.LinkIDs()) {
		m.linkFilter = 0
	}
	m.updateHubTable()
	m.updateResultTable()
	if m.result.OK() {
		m.setMessage(false, "All APWRLINKs within limits")
	} else {
		m.setMessage(true, "%d APWRLINK(s) in violation", m.violatingLinks())
	}
	if dropped > 0 {
		m.message += fmt.Sprintf(" (dropped %d hub setting(s) that no longer fit)", dropped)
	}
}

func (m model) violatingLinks() int {
	n := 0
	for _, l := range m.result.Status.Links {
		if !l.OK() {
			n++
		}
	}
	return n
}

func (m *model) updateHubTable() {
	rows := make([]table.Row, 0, len(m.result.Hubs))
	for _, h := range m.result.Hubs {
		mode := "default"
		if h.Manual {
			mode = "manual"
		}
		rows = append(rows, table.Row{
			h.Name,
			topology.LinkName(h.LinkID),
			strconv.Itoa(h.Anodes()),
			strconv.FormatFloat(h.CurrentMA, 'f', -1, 64),
			strconv.FormatFloat(h.DistanceM, 'f', -1, 64),
			mode,
		})
	}
	setRows(&m.hubTable, rows)
}

func (m *model) updateResultTable() {
	res := m.result
	if m.linkFilter != 0 {
		linkRes, err := res.ForLink(m.linkFilter)
		if err != nil {
			m.linkFilter = 0
		} else {
			res = linkRes
		}
	}
	rows := make([]table.Row, 0, len(res.Segments))
	for _, r := range report.Rows(res.Segments) {
		rows = append(rows, table.Row(r.Strings()))
	}
	setRows(&m.resultTable, rows)
	m.resultTable.GotoTop()
}

// setRows replaces the rows and keeps the cursor on an existing row.
func setRows(t *table.Model, rows []table.Row) {
	t.SetRows(rows)
	if t.Cursor() >= len(rows) {
		t.SetCursor(max(0, len(rows)-1))
	}
}

func (m *model) cycleLink(step int) {
	if m.result == nil {
		return
	}
	n := len(m.result.LinkIDs()) + 1
	m.linkFilter = (m.linkFilter + step + n) % n
	m.updateResultTable()
}

// selectedHub returns the hub under the cursor.
func (m model) selectedHub() (topology.Hub, bool) {
	if m.result == nil {
		return topology.Hub{}, false
	}
	i := m.hubTable.Cursor()
	if i < 0 || i >= len(m.result.Hubs) {
		return topology.Hub{}, false
	}
	return m.result.Hubs[i], true
}

func (m *model) startHubEdit(mode editMode) {
	h, ok := m.selectedHub()
	if !ok {
		return
	}
	m.editing = mode
	m.hubInput.Reset()
	switch mode {
	case editDistance:
		m.hubInput.Placeholder = "distance in m"
		m.hubInput.SetValue(strconv.FormatFloat(h.DistanceM, 'f', -1, 64))
	case editCurrents:
		m.hubInput.Placeholder = fmt.Sprintf("one value or %d values in mA", h.Anodes())
		m.hubInput.SetValue(strconv.FormatFloat(h.AnodeCurrentsMA[0], 'f', -1, 64))
	}
	m.hubInput.Focus()
}

func (m model) updateHubEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editing = editNone
		m.hubInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Enter):
		if err := m.applyHubEdit(m.hubInput.Value()); err != nil {
			m.setMessage(true, "%v", err)
			return m, nil
		}
		m.editing = editNone
		m.hubInput.Blur()
		m.recalculate()
		return m, nil
	}

	var cmd tea.Cmd
	m.hubInput, cmd = m.hubInput.Update(msg)
	return m, cmd
}

// applyHubEdit stores the edited value as an override of the selected hub.
func (m *model) applyHubEdit(value string) error {
	h, ok := m.selectedHub()
	if !ok {
		return fmt.Errorf("no hub selected")
	}
	cfg := m.hubConfigs[h.Index]

	switch m.editing {
	case editDistance:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("distance must be a non-negative number")
		}
		cfg.DistanceM = &v
	case editCurrents:
		currents, err := parseCurrents(value, h.Anodes())
		if err != nil {
			return err
		}
		cfg.AnodeCurrentsMA = currents
	}
	m.hubConfigs[h.Index] = cfg
	return nil
}

func (m *model) resetHub() {
	h, ok := m.selectedHub()
	if !ok {
		return
	}
	if _, set := m.hubConfigs[h.Index]; !set {
		return
	}
	delete(m.hubConfigs, h.Index)
	m.recalculate()
}

func (m model) exportCmd() tea.Cmd {
	res := m.result
	if res == nil {
		return func() tea.Msg {
			return exportedMsg{err: fmt.Errorf("nothing to export, fix the input first")}
		}
	}
	dir := m.cfg.Report.OutputDir
	names := m.cfg.Report.Formats
	exporter := m.exporter
	return func() tea.Msg {
		formats := make([]report.Format, 0, len(names))
		for _, n := range names {
			f, err := report.ParseFormat(n)
			if err != nil {
				return exportedMsg{err: err}
			}
			formats = append(formats, f)
		}
		paths, err := exporter.ExportAll(dir, res, formats)
		return exportedMsg{paths: paths, err: err}
	}
}
