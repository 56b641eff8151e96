// Package protocol reads referee turn records and writes moves, one per line.
//
// A turn record is a header line "N P" (player count, our index) followed by N
// lines "X0 Y0 X1 Y1": each player's start cell and current head. The head
// is -1 -1 once a player is out; the start is -1 -1 only for a player that was
// out before the reader's first record was written.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brensch/lightcycle/game"
)

// NoMove is written when no direction is available.
const NoMove = "AAAAA!"

var ErrMalformed = errors.New("malformed turn record")

type Reader struct {
	r    *bufio.Reader
	line int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadTurn reads one record. It returns io.EOF, unwrapped, when the input ends
// cleanly between records.
func (r *Reader) ReadTurn() (game.TurnInput, error) {
	var in game.TurnInput
	head, err := r.ints(2, true)
	if err != nil {
		return in, err
	}
	n, my := head[0], head[1]
	if n < 1 || my < 0 || my >= n {
		return in, fmt.Errorf("line %d: %d players, index %d: %w", r.line, n, my, ErrMalformed)
	}
	in.MyIdx = my
	in.Starts = make([]game.Point, n)
	in.Positions = make([]game.Point, n)
	for i := 0; i < n; i++ {
		v, err := r.ints(4, false)
		if err != nil {
			return in, err
		}
		in.Starts[i] = game.Point{X: v[0], Y: v[1]}
		in.Positions[i] = game.Point{X: v[2], Y: v[3]}
	}
	return in, nil
}

func (r *Reader) ints(want int, boundary bool) ([]int, error) {
	var line string
	for {
		s, err := r.r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && s != "") {
			if errors.Is(err, io.EOF) {
				if boundary {
					return nil, io.EOF
				}
				return nil, fmt.Errorf("line %d: %w: %w", r.line+1, ErrMalformed, io.ErrUnexpectedEOF)
			}
			return nil, err
		}
		r.line++
		line = strings.TrimSpace(s)
		// blank lines between records are tolerated
		if line != "" || !boundary {
			break
		}
	}

	fields := strings.Fields(line)
	if len(fields) != want {
		return nil, fmt.Errorf("line %d: %q has %d fields, want %d: %w", r.line, line, len(fields), want, ErrMalformed)
	}
	out := make([]int, want)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("line %d: field %q: %w", r.line, f, ErrMalformed)
		}
		out[i] = v
	}
	return out, nil
}

// WriteTurn formats in as a turn record, in one write.
func WriteTurn(w io.Writer, in game.TurnInput) error {
	if len(in.Positions) != len(in.Starts) {
		return fmt.Errorf("%d starts, %d positions: %w", len(in.Starts), len(in.Positions), game.ErrBadInput)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(in.Starts), in.MyIdx)
	for i := range in.Starts {
		s, p := in.Starts[i], in.Positions[i]
		fmt.Fprintf(bw, "%d %d %d %d\n", s.X, s.Y, p.X, p.Y)
	}
	return bw.Flush()
}

// WriteMove writes the direction word, or NoMove when d is not a direction.
func WriteMove(w io.Writer, d game.Dir) error {
	word := NoMove
	if d.Valid() {
		word = d.String()
	}
	_, err := io.WriteString(w, word+"\n")
	return err
}

// ReadMove parses one line written by WriteMove. NoMove yields game.NoDir.
func ReadMove(br *bufio.Reader) (game.Dir, error) {
	s, err := br.ReadString('\n')
	if err != nil && (s == "" || !errors.Is(err, io.EOF)) {
		return game.NoDir, err
	}
	s = strings.TrimSpace(s)
	if s == NoMove {
		return game.NoDir, nil
	}
	d, err := game.ParseDir(s)
	if err != nil {
		return game.NoDir, fmt.Errorf("move %q: %w", s, ErrMalformed)
	}
	return d, nil
}
