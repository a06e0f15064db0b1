package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/replay"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to crisis_decisions.db")
	outPath := flag.String("out", "", "output fixture JSON path")
	seed := flag.Uint64("seed", 0, "selection seed the session ran with (see server log)")
	desc := flag.String("description", "exported session", "fixture description")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--seed N] [--description text]")
		os.Exit(2)
	}

	if err := run(*dbPath, *outPath, *seed, *desc); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, outPath string, seed uint64, desc string) error {
	repo, err := store.NewSQLiteRepository(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer repo.Close()

	if err := logging.EnsureSchema(repo.DB()); err != nil {
		return err
	}
	entries, err := logging.ListTransitions(repo.DB(), 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("decision log is empty")
	}
	session := replay.LatestSession(entries)

	steps, err := replay.StepsFromLog(session)
	if err != nil {
		return fmt.Errorf("build steps: %w", err)
	}
	if len(steps) == 0 {
		return fmt.Errorf("latest session has no participant actions")
	}
	fmt.Printf("Found %d decision log rows in the latest session\n", len(session))

	fixture := replay.Fixture{
		Description: desc,
		Config:      replay.FixtureConfig{Seed: seed},
		Assessment:  assessmentFrom(store.New(repo, nil)),
		Steps:       steps,
	}
	return writeFixture(fixture, outPath)
}

func assessmentFrom(prefs *store.Store) replay.FixtureAssessment {
	var a replay.FixtureAssessment
	if explicit, ok := prefs.ExplicitValues(); ok {
		for _, v := range explicit {
			a.ExplicitValues = append(a.ExplicitValues, v.ValueSelected)
		}
	}
	if deep, ok := prefs.DeepValues(); ok {
		a.DeepValues = deep
	}
	if final, ok := prefs.FinalValues(); ok {
		for _, v := range final {
			a.FinalValues = append(a.FinalValues, v.Name)
		}
	}
	return a
}

// #endregion extract

// #region output

func writeFixture(f replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	fmt.Printf("Wrote %d steps to %s\n", len(f.Steps), outPath)
	return nil
}

// #endregion output
