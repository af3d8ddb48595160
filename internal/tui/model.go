// Package tui is the interactive scenario viewer started by --tui. It runs a
// calibration request, shows per-scenario progress while the grid searches
// run, then lets the user browse each fitted curve: its parameters, a chart
// of the projected storage rate with the inflection year marked, and the
// yearly values.
package tui

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/scenario"
	"github.com/agbru/storagecast/internal/sysmon"
)

// scenarioRow is the viewer state of one growth rate.
type scenarioRow struct {
	rate     float64
	progress float64
	result   *orchestration.ScenarioResult
}

// ExecutionState holds the run-related fields of a session.
type ExecutionState struct {
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
	done       bool
	exitCode   int
	err        error
	reference  *export.Reference
}

// Model is the root bubbletea model of the viewer.
type Model struct {
	header HeaderModel
	help   help.Model
	keymap KeyMap

	rows       []scenarioRow
	selected   int
	showPoints bool

	ExecutionState
	width  int
	height int

	parentCtx context.Context
	runner    orchestration.Runner
	request   scenario.Request
	ref       *programRef
}

// NewModel creates a viewer that will run req with runner.
func NewModel(parentCtx context.Context, runner orchestration.Runner, req scenario.Request, version string) Model {
	ctx, cancel := context.WithCancel(parentCtx)
	return Model{
		header: NewHeaderModel(version),
		help:   help.New(),
		keymap: DefaultKeyMap(),
		rows:   newRows(req.GrowthRates),
		ExecutionState: ExecutionState{
			ctx:      ctx,
			cancel:   cancel,
			exitCode: apperrors.ExitSuccess,
		},
		parentCtx: parentCtx,
		runner:    runner,
		request:   req,
		ref:       &programRef{},
	}
}

func newRows(rates []float64) []scenarioRow {
	rows := make([]scenarioRow, len(rates))
	for i, r := range rates {
		rows[i] = scenarioRow{rate: r}
	}
	return rows
}

// Init starts the run and its watchers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		sampleSysStatsCmd(),
		startRunCmd(m.ref, m.ctx, m.runner, m.request, m.generation),
		watchContextCmd(m.ctx, m.generation),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.header.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case ProgressMsg:
		if msg.ScenarioIndex >= 0 && msg.ScenarioIndex < len(m.rows) {
			m.rows[msg.ScenarioIndex].progress = msg.Value
		}
		m.header.SetProgress(msg.AverageProgress, msg.ETA)
		return m, nil

	case ProgressDoneMsg:
		return m, nil

	case RunCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.exitCode = msg.ExitCode
		m.err = msg.Err
		m.header.SetDone()
		if msg.Result != nil {
			for i := range msg.Result.Results {
				res := msg.Result.Results[i]
				if res.Index >= 0 && res.Index < len(m.rows) {
					m.rows[res.Index].result = &res
					m.rows[res.Index].progress = 1
				}
			}
			if msg.Result.Document != nil {
				m.reference = msg.Result.Document.Reference
			}
		}
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tea.Batch(tickCmd(), sampleSysStatsCmd())

	case SysStatsMsg:
		m.header.SetSysStats(sysmon.Stats(msg))
		return m, nil

	case ContextCancelledMsg:
		if msg.Generation != m.generation || m.done {
			return m, nil
		}
		m.done = true
		m.err = msg.Err
		m.exitCode = apperrors.ExitCodeFor(msg.Err)
		m.header.SetDone()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keymap.Down):
		if m.selected < len(m.rows)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keymap.Points):
		m.showPoints = !m.showPoints
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keymap.Rerun):
		if m.cancel != nil {
			m.cancel()
		}
		m.generation++
		m.ctx, m.cancel = context.WithCancel(m.parentCtx)
		m.rows = newRows(m.request.GrowthRates)
		m.header.Reset()
		m.done = false
		m.err = nil
		m.reference = nil
		m.exitCode = apperrors.ExitSuccess
		return m, tea.Batch(
			tickCmd(),
			startRunCmd(m.ref, m.ctx, m.runner, m.request, m.generation),
			watchContextCmd(m.ctx, m.generation),
		)
	}
	return m, nil
}

// Run starts the viewer and returns the process exit code of the last run.
func Run(ctx context.Context, runner orchestration.Runner, req scenario.Request, version string) int {
	initTUIStyles()

	model := NewModel(ctx, runner, req, version)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}
	if m, ok := finalModel.(Model); ok {
		m.cancel()
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// startRunCmd runs the request with progress forwarded to the program.
func startRunCmd(ref *programRef, ctx context.Context, runner orchestration.Runner, req scenario.Request, gen uint64) tea.Cmd {
	return func() tea.Msg {
		runner.Reporter = &TUIProgressReporter{ref: ref}
		runner.Out = io.Discard
		res, err := runner.Run(ctx, req)
		return RunCompleteMsg{Result: res, Err: err, ExitCode: apperrors.ExitCodeFor(err), Generation: gen}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleSysStatsCmd reads host CPU and memory load.
func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		return SysStatsMsg(sysmon.Sample())
	}
}

// watchContextCmd reports the end of ctx.
func watchContextCmd(ctx context.Context, gen uint64) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err(), Generation: gen}
	}
}
