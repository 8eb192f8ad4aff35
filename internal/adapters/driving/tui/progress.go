// Package tui renders the live progress of a batch analysis.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/licita-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/licita-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/licita-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/licita-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/services"
)

// maxEvents bounds the details log.
const maxEvents = 8

var stageOrder = []string{
	services.StageIngestion,
	services.StageDedup,
	services.StageFusion,
	services.StageValidation,
	services.StageAgents,
	services.StageReport,
}

type phase int

const (
	phasePending phase = iota
	phaseRunning
	phaseDone
)

// Model is the Bubbletea model of the progress view.
type Model struct {
	batchID string
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	bar     *status.Bar
	cancel  context.CancelFunc

	stages    map[string]phase
	agents    map[domain.AgentID]domain.AgentStatus
	running   map[domain.AgentID]bool
	events    []string
	details   bool
	startedAt time.Time
	now       func() time.Time

	finished bool
	report   *domain.FinalReport
	err      error
}

// NewModel creates a progress view for batchID. cancel is called when
// the user quits before the batch has finished.
func NewModel(batchID string, cancel context.CancelFunc) *Model {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	return &Model{
		batchID:   batchID,
		styles:    s,
		keymap:    km,
		spinner:   sp,
		bar:       status.NewBar(s, km),
		cancel:    cancel,
		stages:    make(map[string]phase),
		agents:    make(map[domain.AgentID]domain.AgentStatus),
		running:   make(map[domain.AgentID]bool),
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles key presses, progress events and the final result.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), m.keymap.Details):
			m.details = !m.details
		case keymap.Matches(msg.String(), m.keymap.Quit):
			if m.finished {
				return m, tea.Quit
			}
			if m.cancel != nil {
				m.cancel()
			}
			m.bar.SetState(status.StateCancelling)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.SetWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.bar.SetElapsed(m.now().Sub(m.startedAt))
		return m, cmd

	case messages.ProgressReceived:
		m.apply(msg.Event)
		return m, nil

	case messages.AnalysisFinished:
		m.finish(msg.Report, msg.Err)
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) apply(ev domain.ProgressEvent) {
	if ev.Agent != "" {
		if ev.Done {
			delete(m.running, ev.Agent)
			m.agents[ev.Agent] = ev.Status
			m.log(fmt.Sprintf("%s %s", ev.Agent.ReportKey(), ev.Status))
		} else {
			m.running[ev.Agent] = true
			m.log(fmt.Sprintf("%s started", ev.Agent.ReportKey()))
		}
		return
	}

	for _, s := range stageOrder {
		if s == ev.Stage {
			break
		}
		m.stages[s] = phaseDone
	}
	if ev.Done {
		m.stages[ev.Stage] = phaseDone
	} else {
		m.stages[ev.Stage] = phaseRunning
		if m.bar.State() == status.StateRunning {
			m.bar.SetMessage(ev.Stage)
		}
	}
	if ev.Message != "" {
		m.log(fmt.Sprintf("%s: %s", ev.Stage, ev.Message))
	} else {
		m.log(ev.Stage)
	}
}

func (m *Model) log(line string) {
	m.events = append(m.events, line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

func (m *Model) finish(report *domain.FinalReport, err error) {
	m.finished = true
	m.report = report
	m.err = err
	m.bar.SetElapsed(m.now().Sub(m.startedAt))
	if err != nil {
		m.bar.SetState(status.StateFailed)
		m.bar.SetMessage(err.Error())
		return
	}
	for _, s := range stageOrder {
		m.stages[s] = phaseDone
	}
	m.bar.SetState(status.StateDone)
	m.bar.SetMessage("")
	if d, ok := report.Decision(); ok {
		m.bar.SetMessage(string(d.Recommendation))
	}
}

// View renders the stage and agent checklists.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("licita"))
	b.WriteString(m.styles.Muted.Render(" · batch " + m.batchID))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Subtitle.Render("Pipeline"))
	b.WriteString("\n")
	for _, s := range stageOrder {
		b.WriteString("  " + m.mark(m.stages[s]) + " " + s + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Agents"))
	b.WriteString("\n")
	for _, id := range domain.AgentExecutionOrder() {
		line := fmt.Sprintf("%s %-22s", id.ReportKey(), id)
		switch {
		case m.running[id]:
			b.WriteString("  " + m.spinner.View() + " " + line + "\n")
		case m.agents[id] != "":
			st := m.agents[id]
			b.WriteString("  " + m.styles.AgentStatus(st).Render("✓") + " " + line + " " +
				m.styles.AgentStatus(st).Render(string(st)) + "\n")
		default:
			b.WriteString("  " + m.styles.Muted.Render("·") + " " + m.styles.Muted.Render(line) + "\n")
		}
	}

	if m.details && len(m.events) > 0 {
		b.WriteString("\n")
		for _, e := range m.events {
			b.WriteString(m.styles.Muted.Render("  " + e))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.bar.View())
	b.WriteString("\n")
	return b.String()
}

func (m *Model) mark(p phase) string {
	switch p {
	case phaseRunning:
		return m.spinner.View()
	case phaseDone:
		return m.styles.Success.Render("✓")
	default:
		return m.styles.Muted.Render("·")
	}
}

// Result returns the outcome once AnalysisFinished has been received.
func (m *Model) Result() (*domain.FinalReport, error) {
	return m.report, m.err
}

// Finished reports whether the batch has returned.
func (m *Model) Finished() bool {
	return m.finished
}
