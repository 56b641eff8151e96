package bot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/protocol"
)

// Run answers turn records from r with moves on w until r ends or ctx is
// done. A clean end of input returns nil.
func Run(ctx context.Context, r io.Reader, w io.Writer, s *Session) error {
	in := protocol.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		turn, err := in.ReadTurn()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read turn: %w", err)
		}

		dec, err := s.Decide(turn)
		if err != nil {
			// the referee still expects a line
			_ = protocol.WriteMove(w, game.NoDir)
			return err
		}
		if err := protocol.WriteMove(w, dec.Dir); err != nil {
			return fmt.Errorf("write move: %w", err)
		}
	}
}
