// Package tui replays a self-play match in the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/lightcycle/selfplay"
)

type TickMsg time.Time

// MatchMsg swaps in a new match, restarting playback.
type MatchMsg struct {
	Match *selfplay.Match
}

type Model struct {
	match  *selfplay.Match
	frame  int
	paused bool
	delay  time.Duration
	// next, when set, produces the match that follows this one.
	next func() tea.Msg
	// loading is set while next runs; at most one runs at a time.
	loading bool
}

func New(m *selfplay.Match, delay time.Duration) Model {
	if delay <= 0 {
		delay = 150 * time.Millisecond
	}
	return Model{match: m, delay: delay}
}

// WithNext makes the model load another match once playback ends.
func (m Model) WithNext(next func() *selfplay.Match) Model {
	m.next = func() tea.Msg { return MatchMsg{Match: next()} }
	return m
}

func (m Model) Frame() int { return m.frame }

func (m Model) Paused() bool { return m.paused }

func (m Model) Delay() time.Duration { return m.delay }

// Loading reports whether the next match is being produced.
func (m Model) Loading() bool { return m.loading }

// Done reports whether playback reached the last frame.
func (m Model) Done() bool {
	return m.match == nil || m.frame >= len(m.match.Frames)-1
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.delay, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "n", "right":
			m.step(1)
		case "p", "left":
			m.step(-1)
		case "+":
			if m.delay > 20*time.Millisecond {
				m.delay /= 2
			}
		case "-":
			m.delay *= 2
		case "r":
			m.frame = 0
		}
		return m, nil
	case TickMsg:
		if !m.paused {
			if m.Done() && m.next != nil {
				if m.loading {
					return m, m.tickCmd()
				}
				m.loading = true
				return m, tea.Batch(m.next, m.tickCmd())
			}
			m.step(1)
		}
		return m, m.tickCmd()
	case MatchMsg:
		m.loading = false
		if msg.Match != nil {
			m.match = msg.Match
			m.frame = 0
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) step(d int) {
	if m.match == nil {
		return
	}
	m.frame += d
	if m.frame < 0 {
		m.frame = 0
	}
	if last := len(m.match.Frames) - 1; m.frame > last {
		m.frame = last
	}
}

func (m Model) View() string {
	if m.match == nil || len(m.match.Frames) == 0 {
		return "waiting for a match...\n\nPress q to quit.\n"
	}
	f := m.match.Frames[m.frame]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Match %s  %dx%d  budget %s\n", m.match.ID, m.match.Width, m.match.Height, m.match.Budget)
	fmt.Fprintf(&sb, "Turn %d/%d  alive %d", f.Turn, m.match.Turns, f.Alive)
	if m.paused {
		sb.WriteString("  [paused]")
	}
	if m.loading {
		sb.WriteString("  [next match...]")
	}
	sb.WriteString("\n")
	sb.WriteString(f.Board)
	sb.WriteString("\n\n")
	for i, h := range f.Heads {
		move := "-"
		if f.Moves != nil && f.Moves[i].Valid() {
			move = f.Moves[i].String()
		}
		status := fmt.Sprintf("(%v) %s", h, move)
		if h.IsUnset() {
			status = "out"
		}
		fmt.Fprintf(&sb, "Player %d: %s\n", i, status)
	}
	if m.Done() {
		if m.match.Winner >= 0 {
			fmt.Fprintf(&sb, "\nWinner: player %d\n", m.match.Winner)
		} else {
			sb.WriteString("\nDraw\n")
		}
	}
	sb.WriteString("\nspace pause, n/p step, +/- speed, r restart, q quit\n")
	return sb.String()
}
