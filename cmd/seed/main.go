package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/replay"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to crisis_decisions.db")
	filePath := flag.String("file", "", "assessment YAML (explicit_values, deep_values, final_values)")
	flag.Parse()

	if *dbPath == "" || *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: seed --db path/to/crisis_decisions.db --file assessment.yaml")
		os.Exit(2)
	}

	if err := run(*dbPath, *filePath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region seed

func run(dbPath, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read assessment: %w", err)
	}
	var a replay.FixtureAssessment
	if err := yaml.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("parse assessment: %w", err)
	}
	if err := a.Validate(); err != nil {
		return err
	}

	repo, err := store.NewSQLiteRepository(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer repo.Close()

	prefs := store.New(repo, nil)
	if err := a.Seed(prefs); err != nil {
		return err
	}
	fmt.Printf("Seeded %s: explicit=%d deep=%d final=%d stable=%v\n",
		dbPath, len(a.ExplicitValues), len(a.DeepValues), len(a.FinalValues), prefs.StableValueSet())
	return nil
}

// #endregion seed
