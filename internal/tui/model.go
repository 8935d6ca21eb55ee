// Package tui implements the interactive execution-result viewer.
package tui

import (
	"strconv"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"
)

// View identifies which table is on screen.
type View int

const (
	ViewERP View = iota
	ViewRCMS
	ViewUnsettled
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewERP:
		return "ERP"
	case ViewRCMS:
		return "RCMS"
	case ViewUnsettled:
		return "Unsettled"
	default:
		return "unknown"
	}
}

// chrome is the number of lines taken by tabs, footer and help.
const chrome = 7

// Model holds the viewer state.
type Model struct {
	report    *model.ExecutionReport
	theme     themes.Theme
	help      help.Model
	keymap    KeyMap
	tables    [viewCount]table.Model
	unsettled []model.Expense
	config    Config
	width     int
	height    int
	view      View
	quitting  bool
}

// New builds a viewer for report. unsettled carries the records behind
// report.Unsettled so the third tab can list them.
func New(report *model.ExecutionReport, unsettled []model.Expense, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if report == nil {
		report = &model.ExecutionReport{}
	}

	m := Model{
		report:    report,
		unsettled: unsettled,
		config:    cfg,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		width:     cfg.Width,
		height:    cfg.Height,
		view:      ViewERP,
	}
	m.tables[ViewERP] = m.newTable(erpColumns(), erpRows(report.ERP))
	m.tables[ViewRCMS] = m.newTable(rcmsColumns(), rcmsRows(report.RCMS))
	m.tables[ViewUnsettled] = m.newTable(unsettledColumns(), unsettledRows(unsettled))
	m.resize()
	m.focus()
	return m
}

func (m Model) newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(m.theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = m.theme.Selected
	t.SetStyles(s)
	return t
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.NextView):
			m.view = (m.view + 1) % viewCount
			m.focus()
			return m, nil
		case key.Matches(msg, m.keymap.PrevView):
			m.view = (m.view + viewCount - 1) % viewCount
			m.focus()
			return m, nil
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	}

	t, cmd := m.tables[m.view].Update(msg)
	m.tables[m.view] = t
	return m, cmd
}

func (m *Model) focus() {
	for i := range m.tables {
		if View(i) == m.view {
			m.tables[i].Focus()
		} else {
			m.tables[i].Blur()
		}
	}
}

func (m *Model) resize() {
	height := max(3, m.height-chrome)
	for i := range m.tables {
		m.tables[i].SetHeight(height)
		m.tables[i].SetWidth(m.width)
	}
	m.help.Width = m.width
}

func erpColumns() []table.Column {
	return []table.Column{
		{Title: "통계목", Width: 14},
		{Title: "실행예산", Width: 16},
		{Title: "집행액", Width: 16},
		{Title: "잔액", Width: 16},
		{Title: "집행률", Width: 9},
	}
}

func erpRows(rows []model.ERPBudgetRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{
			r.Category,
			cli.FormatCurrency(r.Allocated),
			cli.FormatCurrency(r.Executed),
			cli.FormatCurrency(r.Balance),
			cli.FormatRate(r.Rate),
		})
	}
	return out
}

func rcmsColumns() []table.Column {
	return []table.Column{
		{Title: "코드", Width: 9},
		{Title: "항목", Width: 22},
		{Title: "비목", Width: 12},
		{Title: "예산", Width: 15},
		{Title: "사용액", Width: 15},
		{Title: "잔액", Width: 15},
		{Title: "집행률", Width: 9},
	}
}

func rcmsRows(rows []model.RCMSBudgetRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{
			r.Code,
			r.Name,
			r.ParentCategory,
			cli.FormatCurrency(r.Budget),
			cli.FormatCurrency(r.Used),
			cli.FormatCurrency(r.Balance),
			cli.FormatRate(r.Rate),
		})
	}
	return out
}

func unsettledColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "사용일자", Width: 10},
		{Title: "통계목", Width: 12},
		{Title: "지출결의명", Width: 24},
		{Title: "금액", Width: 14},
		{Title: "RCMS", Width: 9},
	}
}

func unsettledRows(expenses []model.Expense) []table.Row {
	out := make([]table.Row, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, table.Row{
			strconv.Itoa(e.ID),
			e.DateString(),
			e.Category,
			e.Title,
			cli.FormatCurrency(e.Amount),
			e.RCMSCode,
		})
	}
	return out
}
