package ranking

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// ErrIncompleteRanking is returned when a submitted order is not a permutation
// of the full value or metric domain.
var ErrIncompleteRanking = errors.New("incomplete ranking")

// UsageCounter receives one call per accepted ranking submission.
type UsageCounter interface {
	RankingSubmitted(basis string)
}

// #region ranker
// Ranker persists participant rankings and the authoritative basis flag.
type Ranker struct {
	prefs   *store.Store
	counter UsageCounter
	log     *slog.Logger
}

// New creates a ranker. counter and logger may be nil.
func New(prefs *store.Store, counter UsageCounter, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{prefs: prefs, counter: counter, log: logger}
}

// Submit validates and persists a ranking, marks basis authoritative, and bumps
// the per-basis usage counter. Returns the canonicalized items as stored.
func (r *Ranker) Submit(basis store.Basis, items []store.RankItem) ([]store.RankItem, error) {
	canonical, err := Canonicalize(basis, items)
	if err != nil {
		return nil, err
	}
	if err := r.prefs.SetRanking(basis, canonical); err != nil {
		return nil, fmt.Errorf("persist %s ranking: %w", basis, err)
	}
	if err := r.prefs.SetPreferenceBasis(basis); err != nil {
		return nil, fmt.Errorf("persist preference basis: %w", err)
	}

	usage := r.prefs.RankingUsage()
	if basis == store.BasisMetrics {
		usage.Metrics++
	} else {
		usage.Values++
	}
	if err := r.prefs.SetRankingUsage(usage); err != nil {
		// Diagnostic counter only; the ranking itself is already stored.
		r.log.Warn("persist ranking usage failed", "err", err)
	}
	if r.counter != nil {
		r.counter.RankingSubmitted(string(basis))
	}
	r.log.Info("ranking submitted", "basis", basis, "top", canonical[0].ID)
	return canonical, nil
}

// PromoteValue moves v to the front of the persisted value ranking, removing
// any earlier occurrence. An absent ranking is seeded in canonical order.
// The authoritative basis flag is left unchanged.
func (r *Ranker) PromoteValue(v catalog.Value) ([]store.RankItem, error) {
	current, ok := r.prefs.ValueRanking()
	if !ok {
		current = DefaultItems(store.BasisValues)
	}
	next := []store.RankItem{{ID: string(v), Label: ValueLabel(v)}}
	for _, it := range current {
		if parsed, ok := catalog.ParseValue(it.ID); ok && parsed == v {
			continue
		}
		next = append(next, it)
	}
	if err := r.prefs.SetRanking(store.BasisValues, next); err != nil {
		return nil, fmt.Errorf("promote value %s: %w", v, err)
	}
	r.log.Info("value promoted", "value", v)
	return next, nil
}

// #endregion ranker

// #region validation
// Canonicalize checks that items cover the whole domain of basis exactly once and
// rewrites ids to their canonical form. Empty labels get the default label.
func Canonicalize(basis store.Basis, items []store.RankItem) ([]store.RankItem, error) {
	domain := len(catalog.AllValues)
	if basis == store.BasisMetrics {
		domain = len(catalog.AllMetrics)
	}
	if len(items) != domain {
		return nil, fmt.Errorf("%w: %s ranking has %d items, want %d", ErrIncompleteRanking, basis, len(items), domain)
	}

	seen := make(map[string]bool, domain)
	out := make([]store.RankItem, 0, domain)
	for _, it := range items {
		id, label, ok := resolve(basis, it.ID)
		if !ok {
			return nil, fmt.Errorf("%w: unknown %s id %q", ErrIncompleteRanking, basis, it.ID)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate %s id %q", ErrIncompleteRanking, basis, it.ID)
		}
		seen[id] = true
		if it.Label != "" {
			label = it.Label
		}
		out = append(out, store.RankItem{ID: id, Label: label})
	}
	return out, nil
}

func resolve(basis store.Basis, id string) (string, string, bool) {
	if basis == store.BasisMetrics {
		m, ok := catalog.ParseMetric(id)
		return string(m), MetricLabel(m), ok
	}
	v, ok := catalog.ParseValue(id)
	return string(v), ValueLabel(v), ok
}

// #endregion validation

// #region labels
var metricLabels = map[catalog.Metric]string{
	catalog.MetricLivesSaved:              "Lives saved",
	catalog.MetricHumanCasualties:         "Human casualties",
	catalog.MetricFirefightingResource:    "Firefighting resources",
	catalog.MetricInfrastructureCondition: "Infrastructure condition",
	catalog.MetricBiodiversityCondition:   "Biodiversity condition",
	catalog.MetricPropertiesCondition:     "Properties condition",
	catalog.MetricNuclearPowerStation:     "Nuclear power station",
}

var valueLabels = map[catalog.Value]string{
	catalog.ValueSafety:         "Safety",
	catalog.ValueEfficiency:     "Efficiency",
	catalog.ValueSustainability: "Sustainability",
	catalog.ValueFairness:       "Fairness",
	catalog.ValueNonmaleficence: "Nonmaleficence",
}

// ValueLabel returns the display label for v.
func ValueLabel(v catalog.Value) string {
	if l, ok := valueLabels[v]; ok {
		return l
	}
	return string(v)
}

// MetricLabel returns the display label for m.
func MetricLabel(m catalog.Metric) string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// DefaultItems returns the full domain of basis in canonical order.
func DefaultItems(basis store.Basis) []store.RankItem {
	if basis == store.BasisMetrics {
		out := make([]store.RankItem, len(catalog.AllMetrics))
		for i, m := range catalog.AllMetrics {
			out[i] = store.RankItem{ID: string(m), Label: MetricLabel(m)}
		}
		return out
	}
	out := make([]store.RankItem, len(catalog.AllValues))
	for i, v := range catalog.AllValues {
		out[i] = store.RankItem{ID: string(v), Label: ValueLabel(v)}
	}
	return out
}

// #endregion labels
