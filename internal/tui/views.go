package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderTabs(),
		m.tables[m.view].View(),
		m.renderFooter(),
	}
	if m.config.ShowHelp {
		sections = append(sections, m.help.View(m.keymap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, viewCount)
	for v := ViewERP; v < viewCount; v++ {
		label := v.String()
		if v == ViewUnsettled {
			label = fmt.Sprintf("%s (%d)", label, m.report.Unsettled.Count)
		}
		if v == m.view {
			tabs = append(tabs, m.theme.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.theme.InactiveTab.Render(label))
		}
	}
	return m.theme.Title.Render("예산 집행 현황") + "  " + strings.Join(tabs, " ")
}

func (m Model) renderFooter() string {
	var summary string
	switch m.view {
	case ViewERP:
		t := m.report.ERPTotals
		summary = fmt.Sprintf("ERP total: allocated %s, executed %s, balance %s, rate %s",
			cli.FormatCurrency(t.Allocated), cli.FormatCurrency(t.Executed),
			cli.FormatCurrency(t.Balance), cli.FormatRate(t.Rate))
	case ViewRCMS:
		t := m.report.RCMSTotals
		summary = fmt.Sprintf("RCMS total: budget %s, used %s, balance %s, rate %s",
			cli.FormatCurrency(t.Allocated), cli.FormatCurrency(t.Executed),
			cli.FormatCurrency(t.Balance), cli.FormatRate(t.Rate))
	case ViewUnsettled:
		summary = fmt.Sprintf("%d unsettled, total %s",
			m.report.Unsettled.Count, cli.FormatCurrency(m.report.Unsettled.Total))
	}

	rec := m.report.Reconciliation
	status := m.theme.StatusSuccess.Render("✓ ERP/RCMS executed amounts match")
	if !rec.Match {
		status = m.theme.StatusWarning.Render("⚠ ERP/RCMS difference " + cli.FormatCurrency(rec.Difference))
	}
	return m.theme.Footer.Render(summary + "\n" + status)
}
