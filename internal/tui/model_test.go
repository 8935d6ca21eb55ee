package tui

import (
	"testing"
	"time"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *model.ExecutionReport {
	return &model.ExecutionReport{
		ERP: []model.ERPBudgetRow{
			{Category: "총액", Allocated: 1000000, Executed: 1300},
			{Category: "재료비", Allocated: 1000000, Executed: 1300, Balance: 998700, Rate: 0.13},
		},
		RCMS: []model.RCMSBudgetRow{
			{Code: "RCMS_008", Name: "연구재료구입비", ParentCategory: "연구재료비", Budget: 500000, Used: 1000, Balance: 499000, Rate: 0.2},
		},
		Unsettled:      model.UnsettledSummary{IDs: []int{3}, Total: 300, Count: 1},
		ERPTotals:      model.Totals{Allocated: 1000000, Executed: 1300, Balance: 998700, Rate: 0.13},
		RCMSTotals:     model.Totals{Allocated: 500000, Executed: 1000, Balance: 499000, Rate: 0.2},
		Reconciliation: model.Reconciliation{ERPExecuted: 1300, RCMSExecuted: 1000, Difference: 300},
	}
}

func testUnsettled() []model.Expense {
	return []model.Expense{
		{ID: 3, Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), Category: "재료비", Title: "미정산 시약", Amount: 300},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestNew(t *testing.T) {
	m := New(testReport(), testUnsettled(), WithSize(120, 40))

	assert.Equal(t, ViewERP, m.view)
	assert.Len(t, m.tables[ViewERP].Rows(), 2)
	assert.Len(t, m.tables[ViewRCMS].Rows(), 1)
	assert.Len(t, m.tables[ViewUnsettled].Rows(), 1)
	assert.True(t, m.tables[ViewERP].Focused())
	assert.False(t, m.tables[ViewRCMS].Focused())
	assert.Nil(t, m.Init())
}

func TestNew_NilReport(t *testing.T) {
	m := New(nil, nil)
	assert.Empty(t, m.tables[ViewERP].Rows())
	assert.NotPanics(t, func() { _ = m.View() })
}

func TestUpdate_SwitchesViews(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		expected View
	}{
		{name: "tab once", keys: []string{"tab"}, expected: ViewRCMS},
		{name: "tab twice", keys: []string{"tab", "tab"}, expected: ViewUnsettled},
		{name: "tab wraps", keys: []string{"tab", "tab", "tab"}, expected: ViewERP},
		{name: "shift tab wraps backwards", keys: []string{"shift+tab"}, expected: ViewUnsettled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testReport(), testUnsettled())
			for _, k := range tt.keys {
				m, _ = update(t, m, keyMsg(k))
			}
			assert.Equal(t, tt.expected, m.view)
			assert.True(t, m.tables[tt.expected].Focused())
		})
	}
}

func TestUpdate_Quit(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		t.Run(k, func(t *testing.T) {
			m := New(testReport(), testUnsettled())
			m, cmd := update(t, m, keyMsg(k))
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
			assert.True(t, m.quitting)
			assert.Empty(t, m.View())
		})
	}
}

func TestUpdate_CursorMovesInActiveTable(t *testing.T) {
	m := New(testReport(), testUnsettled())
	m, _ = update(t, m, keyMsg("down"))
	assert.Equal(t, 1, m.tables[ViewERP].Cursor())
	assert.Equal(t, 0, m.tables[ViewRCMS].Cursor())
}

func TestUpdate_HelpToggle(t *testing.T) {
	m := New(testReport(), testUnsettled())
	m, _ = update(t, m, keyMsg("?"))
	assert.True(t, m.help.ShowAll)
	m, _ = update(t, m, keyMsg("?"))
	assert.False(t, m.help.ShowAll)
}

func TestUpdate_WindowSize(t *testing.T) {
	m := New(testReport(), testUnsettled())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 50})

	assert.Equal(t, 140, m.width)
	assert.Equal(t, 50, m.height)
	assert.Equal(t, 140, m.help.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 4})
	assert.NotPanics(t, func() { _ = m.View() })
}

func TestView_Content(t *testing.T) {
	m := New(testReport(), testUnsettled(), WithSize(140, 40))

	out := m.View()
	assert.Contains(t, out, "재료비")
	assert.Contains(t, out, "1,000,000원")
	assert.Contains(t, out, "ERP total")
	assert.Contains(t, out, "difference 300원")
	assert.Contains(t, out, "Unsettled (1)")

	m, _ = update(t, m, keyMsg("tab"))
	assert.Contains(t, m.View(), "연구재료구입비")

	m, _ = update(t, m, keyMsg("tab"))
	out = m.View()
	assert.Contains(t, out, "미정산 시약")
	assert.Contains(t, out, "1 unsettled, total 300원")
}

func TestView_NoHelp(t *testing.T) {
	m := New(testReport(), testUnsettled(), WithHelp(false))
	assert.NotContains(t, m.View(), "quit")
}
