package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/dbconfig"
)

// Question mirrors the JSON question-bank snapshot
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectOrder []int    `json:"correct_order"`
}

func main() {
	path := "assets/questions.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total    = len(questions)
		inserted int
		skipped  int
		errs     int
	)

	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal options for %s: %v\n", q.ID, err)
			errs++
			continue
		}
		orderJSON, err := json.Marshal(q.CorrectOrder)
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal correct order for %s: %v\n", q.ID, err)
			errs++
			continue
		}

		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO questions (id, text, options, correct_order)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO NOTHING
        `,
			q.ID, q.Text, optionsJSON, orderJSON,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting question %s: %v\n", q.ID, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Questions seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
