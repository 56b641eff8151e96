// Command lightcycle-stats summarises decision and match traces.
//
//	lightcycle-stats [-sql QUERY] DIR...
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/brensch/lightcycle/analysis"
)

func main() {
	query := flag.String("sql", "", "Run this query against the decisions and matches views instead of the summary")
	timeout := flag.Duration("timeout", time.Minute, "Query timeout")
	flag.Parse()

	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"data"}
	}

	db, err := analysis.Open(roots...)
	if err != nil {
		log.Fatalf("Failed to open traces: %v", err)
	}
	defer db.Close()
	decisions, matches := db.Files()
	log.Printf("Loaded %d decision files and %d match files from %s", decisions, matches, strings.Join(roots, ", "))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *query != "" {
		if err := runQuery(ctx, db, *query); err != nil {
			log.Fatalf("Query failed: %v", err)
		}
		return
	}

	s, err := db.Summarize(ctx)
	if err != nil {
		log.Fatalf("Summary failed: %v", err)
	}
	if err := s.Print(os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func runQuery(ctx context.Context, db *analysis.DB, query string) error {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		cells := make([]string, len(vals))
		for i, v := range vals {
			cells[i] = formatCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return tw.Flush()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case sql.RawBytes:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
