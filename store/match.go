package store

import (
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

// MatchRow summarises one finished self-play match.
type MatchRow struct {
	MatchID   string `parquet:"match_id,dict"`
	CreatedNs int64  `parquet:"created_ns"`
	Width     int32  `parquet:"width"`
	Height    int32  `parquet:"height"`
	Players   int32  `parquet:"players"`
	Turns     int32  `parquet:"turns"`
	// Winner is the referee index of the last survivor, -1 for a draw.
	Winner int32   `parquet:"winner"`
	StartX []int32 `parquet:"start_x"`
	StartY []int32 `parquet:"start_y"`
	// TrailLength per player when the match ended.
	TrailLength []int32 `parquet:"trail_length"`
	Budget      string  `parquet:"budget,dict"`
}

func WriteMatchesParquet(outDir string, rows []MatchRow) (string, error) {
	name := fmt.Sprintf("matches_%d.parquet", time.Now().UnixNano())
	return writeAtomic(outDir, name, rows, matchSchema)
}

func ReadMatches(path string) ([]MatchRow, error) {
	rows, err := parquet.ReadFile[MatchRow](path)
	if err != nil {
		return nil, fmt.Errorf("read matches %s: %w", path, err)
	}
	return rows, nil
}
