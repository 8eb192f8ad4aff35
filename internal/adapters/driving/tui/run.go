package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/licita-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// AnalyzeFunc runs one batch, reporting transitions to progress.
type AnalyzeFunc func(ctx context.Context, progress func(domain.ProgressEvent)) (*domain.FinalReport, error)

// Run executes fn behind the progress view and returns its result.
// Quitting the view cancels the context passed to fn and waits for it
// to return.
func Run(ctx context.Context, batchID string, fn AnalyzeFunc, opts ...tea.ProgramOption) (*domain.FinalReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(batchID, cancel)
	p := tea.NewProgram(model, opts...)

	go func() {
		report, err := fn(ctx, func(ev domain.ProgressEvent) {
			p.Send(messages.ProgressReceived{Event: ev})
		})
		p.Send(messages.AnalysisFinished{Report: report, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	m, ok := final.(*Model)
	if !ok || !m.Finished() {
		return nil, fmt.Errorf("progress view exited before the batch finished")
	}
	return m.Result()
}
