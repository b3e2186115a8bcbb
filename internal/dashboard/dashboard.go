// Package dashboard renders a live terminal view of a training run.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/trainer"
)

const recentEpisodes = 10

type tickMsg time.Time

// doneMsg is delivered once the updates channel is closed
type doneMsg struct{}

// Model is the bubbletea model of the dashboard
type Model struct {
	workers   int
	updates   <-chan trainer.Update
	cancel    context.CancelFunc
	startTime time.Time

	episodes   int
	steps      int64
	entries    int
	bestWorld  env.World
	bestReward float64
	recent     []string
	stopping   bool
	done       bool
}

// New creates a dashboard fed by updates. Pressing q or ctrl+c calls cancel
// and the dashboard keeps running until updates is closed.
func New(workers int, updates <-chan trainer.Update, cancel context.CancelFunc) Model {
	return Model{
		workers:   workers,
		updates:   updates,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(updates <-chan trainer.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return u
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			if !m.stopping {
				m.stopping = true
				m.cancel()
			}
		}
	case tickMsg:
		return m, tickCmd()
	case trainer.Update:
		return m.apply(msg), waitForUpdate(m.updates)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) apply(u trainer.Update) Model {
	ep := u.Episode
	m.episodes++
	m.steps = u.TotalSteps
	m.entries = u.TableEntries
	if m.bestWorld.Less(ep.BestWorld) {
		m.bestWorld = ep.BestWorld
	}
	if m.episodes == 1 || ep.TotalReward > m.bestReward {
		m.bestReward = ep.TotalReward
	}

	line := fmt.Sprintf("worker %d ep %d: world %s progress %d reward %.1f steps %d (%s)",
		ep.Worker, ep.Episode, ep.BestWorld, ep.MaxProgress, ep.TotalReward, ep.Steps, ep.End)
	m.recent = append([]string{line}, m.recent...)
	if len(m.recent) > recentEpisodes {
		m.recent = m.recent[:recentEpisodes]
	}
	return m
}

func (m Model) View() string {
	elapsed := time.Since(m.startTime)
	stepsPerSec := 0.0
	if elapsed.Seconds() >= 1 {
		stepsPerSec = float64(m.steps) / elapsed.Seconds()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Workers:      %d\n", m.workers)
	fmt.Fprintf(&b, "Episodes:     %d\n", m.episodes)
	fmt.Fprintf(&b, "Steps:        %d (%.1f/s)\n", m.steps, stepsPerSec)
	fmt.Fprintf(&b, "Table:        %d entries\n", m.entries)
	fmt.Fprintf(&b, "Best world:   %s\n", m.bestWorld)
	fmt.Fprintf(&b, "Best reward:  %.1f\n", m.bestReward)
	fmt.Fprintf(&b, "Elapsed:      %s\n\n", elapsed.Round(time.Second))

	b.WriteString("Recent episodes:\n")
	for _, r := range m.recent {
		b.WriteString(r + "\n")
	}

	switch {
	case m.done:
		b.WriteString("\nTraining finished.\n")
	case m.stopping:
		b.WriteString("\nStopping, waiting for workers and saving the table...\n")
	default:
		b.WriteString("\nPress q to stop training.\n")
	}
	return b.String()
}

// Run shows the dashboard until updates is closed
func Run(workers int, updates <-chan trainer.Update, cancel context.CancelFunc) error {
	p := tea.NewProgram(New(workers, updates, cancel), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
