// Command migrate brings an existing database up to the current schema
// and canonicalizes stored taxpayer ids (uppercase, no whitespace) so
// the consistency gate and the unique index see one spelling per
// client.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"csf.practicafiscal.mx/internal/store"
)

func main() {
	dbPath := flag.String("db", "csf.db", "SQLite database path")
	flag.Parse()

	s, err := store.Open(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		log.Fatal(err)
	}

	changed, dupes, err := canonicalizeTaxpayerIDs(ctx, s.DB())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Canonicalized %d taxpayer ids\n", changed)

	if len(dupes) > 0 {
		fmt.Println("Clients sharing a taxpayer id, left as stored (resolve by hand):")
		for _, d := range dupes {
			fmt.Printf("  %s\n", d)
		}
	}

	fmt.Println("Migration complete!")
}

// canonicalizeTaxpayerIDs rewrites every stored taxpayer id to its
// canonical spelling. Ids whose canonical form would collide across
// clients are reported and left untouched; updating them would trip
// the unique index.
func canonicalizeTaxpayerIDs(ctx context.Context, db *sql.DB) (int, []string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, taxpayer_id FROM clients WHERE taxpayer_id <> ''`)
	if err != nil {
		return 0, nil, fmt.Errorf("reading clients: %w", err)
	}
	defer rows.Close()

	type update struct{ id, canonical string }
	var updates []update
	canonicalCount := make(map[string]int)
	for rows.Next() {
		var id, tid string
		if err := rows.Scan(&id, &tid); err != nil {
			return 0, nil, fmt.Errorf("reading clients: %w", err)
		}
		canonical := strings.ToUpper(strings.Join(strings.Fields(tid), ""))
		canonicalCount[canonical]++
		if canonical != tid {
			updates = append(updates, update{id, canonical})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("reading clients: %w", err)
	}

	var dupes []string
	for canonical, n := range canonicalCount {
		if n > 1 {
			dupes = append(dupes, canonical)
		}
	}
	sort.Strings(dupes)

	changed := 0
	for _, u := range updates {
		if canonicalCount[u.canonical] > 1 {
			continue
		}
		if _, err := db.ExecContext(ctx,
			`UPDATE clients SET taxpayer_id = ? WHERE id = ?`,
			u.canonical, u.id); err != nil {
			return changed, dupes, fmt.Errorf("updating client %s: %w", u.id, err)
		}
		changed++
	}
	return changed, dupes, nil
}
