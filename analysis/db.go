// Package analysis runs SQL summaries over decision and match traces.
package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB is an in-memory DuckDB with two views, decisions and matches, over the
// parquet files found under a set of roots.
type DB struct {
	db        *sql.DB
	decisions int
	matches   int
}

// Open scans roots for decisions_*.parquet and matches_*.parquet, skipping
// tmp directories where writers keep unpublished files. A missing root holds
// no files.
func Open(roots ...string) (*DB, error) {
	var decisions, matches []string
	seen := make(map[string]bool)
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "tmp" && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			name := d.Name()
			if filepath.Ext(name) != ".parquet" || seen[path] {
				return nil
			}
			seen[path] = true
			switch {
			case strings.HasPrefix(name, "decisions_"):
				decisions = append(decisions, path)
			case strings.HasPrefix(name, "matches_"):
				matches = append(matches, path)
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	sort.Strings(decisions)
	sort.Strings(matches)

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	_, _ = db.Exec("PRAGMA threads=4")

	if err := createView(db, "decisions", decisions, emptyDecisions); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createView(db, "matches", matches, emptyMatches); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, decisions: len(decisions), matches: len(matches)}, nil
}

const emptyDecisions = `SELECT * FROM (
	SELECT
		NULL::VARCHAR AS match_id,
		NULL::INTEGER AS turn,
		NULL::INTEGER AS player,
		NULL::INTEGER AS players,
		NULL::VARCHAR AS move,
		NULL::VARCHAR AS policy,
		NULL::VARCHAR AS budget,
		NULL::INTEGER AS depth,
		NULL::INTEGER AS results,
		NULL::BIGINT AS iterations,
		NULL::INTEGER AS timed_out,
		NULL::BIGINT AS elapsed_ns
) WHERE 1=0`

const emptyMatches = `SELECT * FROM (
	SELECT
		NULL::VARCHAR AS match_id,
		NULL::INTEGER AS players,
		NULL::INTEGER AS turns,
		NULL::INTEGER AS winner,
		NULL::VARCHAR AS budget
) WHERE 1=0`

func createView(db *sql.DB, name string, files []string, empty string) error {
	body := empty
	if len(files) > 0 {
		quoted := make([]string, len(files))
		for i, f := range files {
			quoted[i] = "'" + escapeSQLString(f) + "'"
		}
		body = `SELECT * FROM read_parquet([` + strings.Join(quoted, ",") + `], union_by_name=true)`
	}
	if _, err := db.Exec(`CREATE OR REPLACE VIEW ` + name + ` AS ` + body); err != nil {
		return fmt.Errorf("create %s view: %w", name, err)
	}
	return nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Files reports how many decision and match files the views cover.
func (d *DB) Files() (decisions, matches int) {
	return d.decisions, d.matches
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Query runs free-form SQL against the views.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}
