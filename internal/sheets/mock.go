package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// MockWriter records exported reports instead of calling the Sheets API.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, report *model.ExecutionReport) error
	LastReport     *model.ExecutionReport
	WriteCallCount int
	mu             sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements service.ReportWriter.
func (m *MockWriter) Write(ctx context.Context, report *model.ExecutionReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastReport = report

	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, report)
	}
	return nil
}
