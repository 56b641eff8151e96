package analysis

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

// MatchStats summarises one player's decisions within a match. Depth is the
// deepest completed ply per decision; TimeoutRatio is the share of decisions
// whose search ran out of budget.
type MatchStats struct {
	MatchID        string
	Player         int
	Turns          int64
	MeanDepth      float64
	MaxDepth       int64
	TimeoutRatio   float64
	MeanIterations float64
	MeanElapsedMs  float64
}

type MoveCount struct {
	Move  string
	Count int64
}

type BudgetStats struct {
	Budget    string
	Matches   int64
	MeanTurns float64
	Draws     int64
}

type Summary struct {
	Matches []MatchStats
	Moves   []MoveCount
	Budgets []BudgetStats
}

// Summarize aggregates every decision and match the views cover.
func (d *DB) Summarize(ctx context.Context) (*Summary, error) {
	var s Summary

	rows, err := d.db.QueryContext(ctx, `SELECT
			match_id,
			player::BIGINT,
			COUNT(*)::BIGINT,
			AVG(depth)::DOUBLE,
			MAX(depth)::BIGINT,
			AVG(CASE WHEN timed_out > 0 THEN 1.0 ELSE 0.0 END)::DOUBLE,
			AVG(iterations)::DOUBLE,
			(AVG(elapsed_ns) / 1e6)::DOUBLE
		FROM decisions
		GROUP BY match_id, player
		ORDER BY match_id, player`)
	if err != nil {
		return nil, fmt.Errorf("query match stats: %w", err)
	}
	for rows.Next() {
		var m MatchStats
		var player int64
		if err := rows.Scan(&m.MatchID, &player, &m.Turns, &m.MeanDepth, &m.MaxDepth, &m.TimeoutRatio, &m.MeanIterations, &m.MeanElapsedMs); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan match stats: %w", err)
		}
		m.Player = int(player)
		s.Matches = append(s.Matches, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `SELECT move, COUNT(*)::BIGINT AS n
		FROM decisions
		GROUP BY move
		ORDER BY n DESC, move`)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	for rows.Next() {
		var m MoveCount
		if err := rows.Scan(&m.Move, &m.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan moves: %w", err)
		}
		s.Moves = append(s.Moves, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `SELECT
			budget,
			COUNT(*)::BIGINT,
			AVG(turns)::DOUBLE,
			SUM(CASE WHEN winner < 0 THEN 1 ELSE 0 END)::BIGINT
		FROM matches
		GROUP BY budget
		ORDER BY budget`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b BudgetStats
		if err := rows.Scan(&b.Budget, &b.Matches, &b.MeanTurns, &b.Draws); err != nil {
			return nil, fmt.Errorf("scan budgets: %w", err)
		}
		s.Budgets = append(s.Budgets, b)
	}
	return &s, rows.Err()
}

// Print writes the summary as aligned tables.
func (s *Summary) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tPLAYER\tTURNS\tDEPTH\tMAX\tTIMEOUT\tITER\tMS")
	for _, m := range s.Matches {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%d\t%.0f%%\t%.0f\t%.1f\n",
			m.MatchID, m.Player, m.Turns, m.MeanDepth, m.MaxDepth, m.TimeoutRatio*100, m.MeanIterations, m.MeanElapsedMs)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "MOVE\tCOUNT")
	for _, m := range s.Moves {
		fmt.Fprintf(tw, "%s\t%d\n", m.Move, m.Count)
	}
	if len(s.Budgets) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "BUDGET\tMATCHES\tTURNS\tDRAWS")
		for _, b := range s.Budgets {
			fmt.Fprintf(tw, "%s\t%d\t%.1f\t%d\n", b.Budget, b.Matches, b.MeanTurns, b.Draws)
		}
	}
	return tw.Flush()
}
