package selfplay

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/brensch/lightcycle/bot"
	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/protocol"
)

// seat connects the referee to one bot over the line protocol, the way the
// stdin bot is driven: a turn record in, a move line out.
type seat struct {
	turns *io.PipeWriter
	moves *bufio.Reader
	done  chan error
}

func sit(ctx context.Context, s *bot.Session) *seat {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	st := &seat{turns: inW, moves: bufio.NewReader(outR), done: make(chan error, 1)}
	go func() {
		err := bot.Run(ctx, inR, outW, s)
		_ = inR.CloseWithError(err)
		_ = outW.CloseWithError(err)
		st.done <- err
	}()
	return st
}

// ask sends one record and waits for the answer. A bot that answered NoMove
// yields game.NoDir.
func (st *seat) ask(in game.TurnInput) (game.Dir, error) {
	if err := protocol.WriteTurn(st.turns, in); err != nil {
		return game.NoDir, fmt.Errorf("send turn: %w", err)
	}
	d, err := protocol.ReadMove(st.moves)
	if err != nil {
		return game.NoDir, fmt.Errorf("read move: %w", err)
	}
	return d, nil
}

// leave ends the bot's input and returns how its loop ended.
func (st *seat) leave() error {
	_ = st.turns.Close()
	return <-st.done
}
