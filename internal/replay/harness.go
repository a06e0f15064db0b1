package replay

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/analysis"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/flow"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/metrics"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/ranking"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/selector"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/session"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region types
// StepResult captures the outcome of replaying one fixture step.
type StepResult struct {
	Index    int
	Action   string
	Accepted bool
	Phase    session.Phase
	Message  string
	Err      string
	Mismatch string // empty when the step matched its expectations
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalSteps   int
	Accepted     int
	Rejected     int
	Errors       int
	Mismatches   int
	Confirmed    int
	Done         bool
	FinalMetrics metrics.Simulation
}

// Report is the full result of a replay run.
type Report struct {
	Results  []StepResult
	Summary  Summary
	Analysis analysis.Result
	Log      []logging.TransitionEntry // decision log of the replayed session
}

// memoryLog keeps decision log entries for the value-change recap.
type memoryLog struct {
	mu      sync.Mutex
	entries []logging.TransitionEntry
}

func (l *memoryLog) Record(e logging.TransitionEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// #endregion types

// #region replay
// Run replays a fixture against an in-memory store. Steps are applied in order;
// a failing step is reported and the run continues. Operates entirely in-memory.
func Run(f *Fixture, cat flow.Catalog, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	prefs := store.New(store.NewMemoryRepository(), logger)
	if err := f.Assessment.Seed(prefs); err != nil {
		return nil, err
	}

	rec := &memoryLog{}
	m, err := flow.New(flow.Deps{
		Catalog:  cat,
		Prefs:    prefs,
		Selector: selector.NewSelector(prefs, rand.New(rand.NewPCG(f.Config.Seed, f.Config.Seed)), logger),
		Ranker:   ranking.New(prefs, nil, logger),
		Recorder: rec,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("start replay session: %w", err)
	}
	defer m.Close()

	results := make([]StepResult, 0, len(f.Steps))
	for i, step := range f.Steps {
		fb, err := m.Dispatch(step.Command())
		r := StepResult{Index: i, Action: step.Action, Accepted: err == nil && fb.Accepted, Phase: m.State().Phase, Message: fb.Message}
		if err != nil {
			r.Err = err.Error()
		}
		r.Mismatch = check(step, r)
		results = append(results, r)
	}

	sim, _ := m.Metrics()
	sum := Summarize(results)
	sum.Done = m.Done()
	sum.FinalMetrics = sim

	res := analysis.Analyze(analysis.FromStore(prefs))
	rec.mu.Lock()
	entries := append([]logging.TransitionEntry(nil), rec.entries...)
	rec.mu.Unlock()
	recap := analysis.RecapFromLog(entries)
	res.Recap = &recap

	return &Report{Results: results, Summary: sum, Analysis: res, Log: entries}, nil
}

func check(step FixtureStep, r StepResult) string {
	if step.ExpectAccepted != nil && *step.ExpectAccepted != r.Accepted {
		return fmt.Sprintf("expected accepted=%v, got %v", *step.ExpectAccepted, r.Accepted)
	}
	if step.ExpectPhase != "" && step.ExpectPhase != string(r.Phase) {
		return fmt.Sprintf("expected phase %s, got %s", step.ExpectPhase, r.Phase)
	}
	return ""
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []StepResult) Summary {
	s := Summary{TotalSteps: len(results)}
	for _, r := range results {
		switch {
		case r.Err != "":
			s.Errors++
		case r.Accepted:
			s.Accepted++
		default:
			s.Rejected++
		}
		if r.Mismatch != "" {
			s.Mismatches++
		}
		if r.Accepted && r.Action == flow.ActionConfirmDecision {
			s.Confirmed++
		}
	}
	return s
}

// #endregion replay
