package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/analysis"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	catalogPath := flag.String("catalog", "", "scenario catalog YAML (default: embedded)")
	jsonOut := flag.Bool("json", false, "print the full report as JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--catalog scenarios.yaml] [--json]")
		os.Exit(2)
	}
	os.Exit(runFixtureMode(*fixturePath, *catalogPath, *jsonOut))
}

// #endregion main

// #region fixture-mode

func runFixtureMode(fixturePath, catalogPath string, jsonOut bool) int {
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	cat, err := loadCatalog(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		return 2
	}

	report, err := replay.Run(f, cat, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
			return 2
		}
	} else {
		printReport(f, report)
	}

	if report.Summary.Mismatches > 0 || report.Summary.Errors > 0 {
		return 1
	}
	return 0
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// #endregion fixture-mode

// #region output

func printReport(f *replay.Fixture, r *replay.Report) {
	if f.Description != "" {
		fmt.Printf("Fixture: %s\n\n", f.Description)
	}
	fmt.Printf("%-5s  %-22s  %-12s  %-8s  %s\n", "Step", "Action", "Phase", "Result", "Note")
	fmt.Printf("%-5s+-%-22s+-%-12s+-%-8s+-%s\n", "-----", "----------------------", "------------", "--------", "--------------------")
	for _, s := range r.Results {
		result := "ok"
		switch {
		case s.Err != "":
			result = "error"
		case !s.Accepted:
			result = "rejected"
		}
		note := s.Message
		if s.Err != "" {
			note = s.Err
		}
		if s.Mismatch != "" {
			note = "MISMATCH: " + s.Mismatch
		}
		fmt.Printf("%-5d  %-22s  %-12s  %-8s  %s\n", s.Index, s.Action, s.Phase, result, note)
	}

	sum := r.Summary
	fmt.Printf("\nsteps=%d accepted=%d rejected=%d errors=%d mismatches=%d confirmed=%d done=%v\n",
		sum.TotalSteps, sum.Accepted, sum.Rejected, sum.Errors, sum.Mismatches, sum.Confirmed, sum.Done)
	a := r.Analysis
	if a.Status == analysis.StatusOK {
		fmt.Printf("stability score %.1f (explicit %.2f, stable %.2f)\n", a.StabilityScore, a.ExplicitMatchRatio, a.StableMatchRatio)
	} else {
		fmt.Printf("analysis: %s %v\n", a.Status, a.Missing)
	}
	if a.Recap != nil {
		fmt.Printf("recap: reflection=%d adaptive=%d unchanged=%d\n", a.Recap.CVRCommits, a.Recap.APACommits, a.Recap.Unchanged)
	}
}

// #endregion output
