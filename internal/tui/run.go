package tui

import (
	"context"
	"fmt"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the viewer until the user quits or ctx is canceled.
func Run(ctx context.Context, report *model.ExecutionReport, unsettled []model.Expense, opts ...Option) error {
	p := tea.NewProgram(
		New(report, unsettled, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("result viewer failed: %w", err)
	}
	return nil
}
