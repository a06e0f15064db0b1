package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/analysis"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/replay"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to crisis_decisions.db")
	last := flag.Int("last", 30, "show N most recent decision log rows (0 = all)")
	keys := flag.Bool("keys", false, "list stored keys and raw values")
	jsonOut := flag.Bool("json", false, "output as JSON instead of tables")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/crisis_decisions.db [--last N] [--keys] [--json]")
		os.Exit(2)
	}

	repo, err := store.NewSQLiteRepository(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := run(repo, *last, *keys, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region report

type report struct {
	Keys     map[string]string  `json:"keys,omitempty"`
	Outcomes []store.Outcome    `json:"outcomes"`
	Log      []logRow           `json:"log"`
	Analysis analysis.Result    `json:"analysis"`
	Usage    store.RankingUsage `json:"rankingUsage"`
	Basis    store.Basis        `json:"preferenceBasis,omitempty"`
}

type logRow struct {
	Instance  string `json:"instance"`
	Scenario  string `json:"scenario"`
	Action    string `json:"action"`
	From      string `json:"from"`
	To        string `json:"to"`
	Accepted  bool   `json:"accepted"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

func run(repo *store.SQLiteRepository, last int, withKeys, jsonOut bool) error {
	prefs := store.New(repo, nil)
	if err := logging.EnsureSchema(repo.DB()); err != nil {
		return err
	}
	all, err := logging.ListTransitions(repo.DB(), 0)
	if err != nil {
		return err
	}

	res := analysis.Analyze(analysis.FromStore(prefs))
	recap := analysis.RecapFromLog(replay.LatestSession(all))
	res.Recap = &recap

	r := report{Outcomes: prefs.Outcomes(), Analysis: res, Usage: prefs.RankingUsage()}
	if b, ok := prefs.PreferenceBasis(); ok {
		r.Basis = b
	}
	shown := all
	if last > 0 && len(shown) > last {
		shown = shown[len(shown)-last:]
	}
	for _, e := range shown {
		r.Log = append(r.Log, logRow{
			Instance:  e.InstanceID,
			Scenario:  e.ScenarioID,
			Action:    e.Action,
			From:      e.FromPhase,
			To:        e.ToPhase,
			Accepted:  e.Accepted,
			Detail:    e.DetailJSON,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	if withKeys {
		if r.Keys, err = rawKeys(repo); err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(r)
	}
	printTables(r)
	return nil
}

func rawKeys(repo store.Repository) (map[string]string, error) {
	names, err := repo.Keys()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(names))
	for _, k := range names {
		v, _, err := repo.Get(k)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// #endregion report

// #region output

func printTables(r report) {
	if len(r.Keys) > 0 {
		fmt.Println("Keys")
		for k, v := range r.Keys {
			fmt.Printf("  %-28s %s\n", k, truncate(v, 80))
		}
		fmt.Println()
	}

	fmt.Println("Outcomes")
	if len(r.Outcomes) == 0 {
		fmt.Println("  (none)")
	}
	for i, o := range r.Outcomes {
		fmt.Printf("  %d. %-12s %-28s %s\n", i+1, o.ScenarioID, o.Decision.ID, o.Decision.Label)
	}

	fmt.Println()
	fmt.Printf("%-10s  %-12s  %-22s  %-12s  %-12s  %-3s  %s\n", "Instance", "Scenario", "Action", "From", "To", "OK", "Time")
	fmt.Printf("%-10s+-%-12s+-%-22s+-%-12s+-%-12s+-%-3s+-%s\n",
		"----------", "------------", "----------------------", "------------", "------------", "---", "--------------------")
	for _, l := range r.Log {
		ok := "no"
		if l.Accepted {
			ok = "yes"
		}
		fmt.Printf("%-10s  %-12s  %-22s  %-12s  %-12s  %-3s  %s\n",
			truncate(l.Instance, 10), l.Scenario, l.Action, l.From, l.To, ok, l.CreatedAt)
	}

	a := r.Analysis
	fmt.Println()
	fmt.Printf("Analysis: %s\n", a.Status)
	if a.Status != analysis.StatusOK {
		fmt.Printf("  missing: %s\n", strings.Join(a.Missing, ", "))
	} else {
		fmt.Printf("  explicit match %.2f | stable match %.2f | stability score %.1f\n",
			a.ExplicitMatchRatio, a.StableMatchRatio, a.StabilityScore)
		for _, c := range a.Classifications {
			fmt.Printf("  %-12s %-28s %-16s %s\n", c.ScenarioID, c.OptionID, c.Label, c.Class)
		}
	}
	if a.Recap != nil {
		fmt.Printf("  recap: reflection commits=%d adaptive commits=%d unchanged=%d\n",
			a.Recap.CVRCommits, a.Recap.APACommits, a.Recap.Unchanged)
	}
	fmt.Printf("  ranking usage: values=%d metrics=%d basis=%s\n", r.Usage.Values, r.Usage.Metrics, r.Basis)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion output
