// Package store persists decision traces and match summaries as parquet.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/lightcycle/game"
	"github.com/brensch/lightcycle/protocol"
	"github.com/brensch/lightcycle/search"
)

const (
	decisionSchema = "decision_row_v1"
	matchSchema    = "match_row_v1"
)

// DecisionRow is one engine decision: the referee snapshot it saw and what
// the search made of it.
//
// Per-player slices are in referee order. Per-direction slices follow
// game.Dirs: LEFT, RIGHT, UP, DOWN.
type DecisionRow struct {
	MatchID string `parquet:"match_id,dict"`
	Turn    int32  `parquet:"turn"`
	Player  int32  `parquet:"player"`
	Players int32  `parquet:"players"`
	Width   int32  `parquet:"width"`
	Height  int32  `parquet:"height"`

	StartX []int32 `parquet:"start_x"`
	StartY []int32 `parquet:"start_y"`
	HeadX  []int32 `parquet:"head_x"`
	HeadY  []int32 `parquet:"head_y"`

	// Move is the direction word written, or protocol.NoMove.
	Move   string `parquet:"move,dict"`
	Policy string `parquet:"policy,dict"`
	Budget string `parquet:"budget,dict"`

	DirAverage []float64 `parquet:"dir_average"`
	DirCount   []int32   `parquet:"dir_count"`
	// Initial is the normalised floodfill before any simulated move, in
	// engine order (index 0 is the deciding player).
	Initial []float64 `parquet:"initial"`
	// BestScores are the scores of the principal leaf, engine order.
	BestScores []float64 `parquet:"best_scores"`

	Depth      int32 `parquet:"depth"`
	Results    int32 `parquet:"results"`
	Iterations int64 `parquet:"iterations"`
	TimedOut   int32 `parquet:"timed_out"`
	ElapsedNs  int64 `parquet:"elapsed_ns"`
	CreatedNs  int64 `parquet:"created_ns"`
}

// NewDecisionRow flattens one turn into a row.
func NewDecisionRow(matchID string, width, height int, in game.TurnInput, dec search.Decision, cfg search.Config, budget search.Budget) DecisionRow {
	row := DecisionRow{
		MatchID:    matchID,
		Turn:       int32(dec.Stats.Turn),
		Player:     int32(in.MyIdx),
		Players:    int32(len(in.Starts)),
		Width:      int32(width),
		Height:     int32(height),
		Move:       protocol.NoMove,
		Policy:     cfg.Policy.String(),
		Budget:     budget.String(),
		Initial:    dec.Initial,
		Depth:      int32(dec.Stats.MaxDepth),
		Results:    int32(dec.Stats.ResultCount),
		Iterations: dec.Stats.Iterations,
		TimedOut:   int32(dec.Stats.TimedOut),
		ElapsedNs:  int64(dec.Stats.Elapsed),
		CreatedNs:  time.Now().UnixNano(),
	}
	if dec.Found {
		row.Move = dec.Dir.String()
	}
	if dec.Best != nil {
		row.BestScores = dec.Best.Scores
	}
	for i := range in.Starts {
		row.StartX = append(row.StartX, int32(in.Starts[i].X))
		row.StartY = append(row.StartY, int32(in.Starts[i].Y))
		row.HeadX = append(row.HeadX, int32(in.Positions[i].X))
		row.HeadY = append(row.HeadY, int32(in.Positions[i].Y))
	}
	for _, d := range game.Dirs {
		avg, n := dec.Results.Average(d)
		row.DirAverage = append(row.DirAverage, avg)
		row.DirCount = append(row.DirCount, int32(n))
	}
	return row
}

// TurnInput rebuilds the referee snapshot stored in the row.
func (r DecisionRow) TurnInput() game.TurnInput {
	in := game.TurnInput{MyIdx: int(r.Player)}
	for i := range r.StartX {
		in.Starts = append(in.Starts, game.Point{X: int(r.StartX[i]), Y: int(r.StartY[i])})
		in.Positions = append(in.Positions, game.Point{X: int(r.HeadX[i]), Y: int(r.HeadY[i])})
	}
	return in
}

// WriteDecisionsParquet writes rows to a new file in outDir via a tmp file and
// rename, so readers never see a partial file.
func WriteDecisionsParquet(outDir, matchID string, rows []DecisionRow) (string, error) {
	name := fmt.Sprintf("decisions_%s_%d.parquet", matchID, time.Now().UnixNano())
	return writeAtomic(outDir, name, rows, decisionSchema)
}

func ReadDecisions(path string) ([]DecisionRow, error) {
	rows, err := parquet.ReadFile[DecisionRow](path)
	if err != nil {
		return nil, fmt.Errorf("read decisions %s: %w", path, err)
	}
	return rows, nil
}

func writeAtomic[T any](outDir, name string, rows []T, schema string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	finalPath := filepath.Join(outDir, name)
	tmpPath := finalPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}
