package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/selfplay"
)

func testMatch() *selfplay.Match {
	return &selfplay.Match{
		ID:     "m1",
		Width:  3,
		Height: 1,
		Turns:  2,
		Winner: 0,
		Frames: []selfplay.Frame{
			{Turn: 0, Heads: []game.Point{{X: 0, Y: 0}}, Alive: 1, Board: "start"},
			{Turn: 1, Heads: []game.Point{{X: 1, Y: 0}}, Moves: []game.Dir{game.Right}, Alive: 1, Board: "one"},
			{Turn: 2, Heads: []game.Point{{X: 2, Y: 0}}, Moves: []game.Dir{game.Right}, Alive: 1, Board: "two"},
		},
	}
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("update returned %T", next)
	}
	return mm, cmd
}

func TestPlayback(t *testing.T) {
	m := New(testMatch(), 10*time.Millisecond)
	if cmd := m.Init(); cmd == nil {
		t.Fatalf("init should schedule a tick")
	}
	m, cmd := update(t, m, TickMsg(time.Now()))
	if m.Frame() != 1 || cmd == nil {
		t.Fatalf("frame=%d after tick", m.Frame())
	}
	if !strings.Contains(m.View(), "one") || !strings.Contains(m.View(), "RIGHT") {
		t.Fatalf("view:\n%s", m.View())
	}
	m, _ = update(t, m, TickMsg(time.Now()))
	m, _ = update(t, m, TickMsg(time.Now()))
	if m.Frame() != 2 || !m.Done() {
		t.Fatalf("frame=%d done=%v", m.Frame(), m.Done())
	}
	if !strings.Contains(m.View(), "Winner: player 0") {
		t.Fatalf("view:\n%s", m.View())
	}
}

func TestKeys(t *testing.T) {
	m := New(testMatch(), 40*time.Millisecond)
	m, _ = update(t, m, key(" "))
	if !m.Paused() {
		t.Fatalf("space should pause")
	}
	m, _ = update(t, m, TickMsg(time.Now()))
	if m.Frame() != 0 {
		t.Fatalf("paused model advanced to %d", m.Frame())
	}
	m, _ = update(t, m, key("n"))
	m, _ = update(t, m, key("n"))
	m, _ = update(t, m, key("n"))
	if m.Frame() != 2 {
		t.Fatalf("frame=%d after stepping past the end", m.Frame())
	}
	m, _ = update(t, m, key("p"))
	if m.Frame() != 1 {
		t.Fatalf("frame=%d after stepping back", m.Frame())
	}
	m, _ = update(t, m, key("+"))
	if m.Delay() != 20*time.Millisecond {
		t.Fatalf("delay=%v", m.Delay())
	}
	m, _ = update(t, m, key("r"))
	if m.Frame() != 0 {
		t.Fatalf("restart frame=%d", m.Frame())
	}
	if _, cmd := update(t, m, key("q")); cmd == nil {
		t.Fatalf("q should quit")
	}
}

func TestNextMatch(t *testing.T) {
	m := New(testMatch(), time.Millisecond).WithNext(testMatch)
	m, _ = update(t, m, key("n"))
	m, _ = update(t, m, key("n"))
	_, cmd := update(t, m, TickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("finished playback should request the next match")
	}
	m, _ = update(t, m, MatchMsg{Match: testMatch()})
	if m.Frame() != 0 {
		t.Fatalf("new match should restart playback")
	}
}

// runCmd executes cmd and any batch it expands to, returning the messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestNextMatchRequestedOnce(t *testing.T) {
	calls := 0
	m := New(testMatch(), time.Millisecond).WithNext(func() *selfplay.Match {
		calls++
		return testMatch()
	})
	m, _ = update(t, m, key("n"))
	m, _ = update(t, m, key("n"))
	if !m.Done() {
		t.Fatalf("playback should be done at frame %d", m.Frame())
	}

	var pending []tea.Msg
	for i := 0; i < 5; i++ {
		var cmd tea.Cmd
		m, cmd = update(t, m, TickMsg(time.Now()))
		for _, msg := range runCmd(cmd) {
			if _, ok := msg.(MatchMsg); ok {
				pending = append(pending, msg)
			}
		}
	}
	if calls != 1 || len(pending) != 1 {
		t.Fatalf("next ran %d times for 5 ticks, want 1", calls)
	}
	if !m.Loading() || !strings.Contains(m.View(), "next match") {
		t.Fatalf("model should show it is loading")
	}

	m, _ = update(t, m, pending[0])
	if m.Loading() || m.Frame() != 0 {
		t.Fatalf("loading=%v frame=%d after the match arrived", m.Loading(), m.Frame())
	}
	m, _ = update(t, m, key("n"))
	m, _ = update(t, m, key("n"))
	_, cmd := update(t, m, TickMsg(time.Now()))
	runCmd(cmd)
	if calls != 2 {
		t.Fatalf("next ran %d times after the second match ended, want 2", calls)
	}
}

func TestEmptyView(t *testing.T) {
	if !strings.Contains(New(nil, 0).View(), "waiting") {
		t.Fatalf("empty view")
	}
}
