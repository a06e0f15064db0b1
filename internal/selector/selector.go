package selector

import (
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region tier
// Tier names the cascade step that produced an initial selection.
type Tier string

const (
	TierFirstScenario  Tier = "first_scenario"
	TierValueRanking   Tier = "value_ranking"
	TierMetricRanking  Tier = "metric_ranking"
	TierLegacyRanking  Tier = "legacy_ranking"
	TierStableValues   Tier = "stable_values"
	TierExplicitValues Tier = "explicit_values"
	TierRandom         Tier = "random"
)

// Selection is the pair of options initially offered for a scenario.
type Selection struct {
	Options []catalog.DecisionOption
	Tier    Tier
}

// #endregion tier

// #region selector
// Selector picks the initially offered options from persisted preference signals.
// Not safe for concurrent use; the flow machine serialises calls.
type Selector struct {
	prefs *store.Store
	rng   *rand.Rand
	log   *slog.Logger
}

// NewSelector creates a selector. rng must be non-nil; logger may be nil.
func NewSelector(prefs *store.Store, rng *rand.Rand, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{prefs: prefs, rng: rng, log: logger}
}

// #endregion selector

// #region select-initial
// SelectInitial returns the two options first shown for the scenario at index.
// Results are always drawn from scenario.Options, never from alternatives.
func (s *Selector) SelectInitial(sc catalog.Scenario, index int) Selection {
	pool := sc.Options
	if index == 0 {
		return Selection{Options: s.sample(pool), Tier: TierFirstScenario}
	}

	// Tier 1: persisted value ranking. Tier 2: persisted metric ranking.
	if items, ok := s.prefs.ValueRanking(); ok {
		if out, ok := ByValueRanking(pool, RankedValues(items)); ok {
			return Selection{Options: out, Tier: TierValueRanking}
		}
	}
	if items, ok := s.prefs.MetricRanking(); ok {
		if out, ok := ByMetricRanking(pool, RankedMetrics(items)); ok {
			return Selection{Options: out, Tier: TierMetricRanking}
		}
	}

	// Tier 3: rankings written under the pre-migration keys.
	if s.prefs.RankedViewAccessed() {
		basis, _ := s.prefs.PreferenceBasis()
		if out, ok := s.fromLegacyRanking(pool, basis); ok {
			return Selection{Options: out, Tier: TierLegacyRanking}
		}
	}

	// Tier 4: stable values from the assessment phase.
	if stableSet := s.prefs.StableValueSet(); len(stableSet) > 0 {
		if out, ok := FilterByValues(pool, stableSet); ok {
			return Selection{Options: out, Tier: TierStableValues}
		}
	}

	// Tier 5: most frequently stated explicit value.
	if v, ok := s.mostStatedValue(); ok {
		if out, ok := FilterByValues(pool, []catalog.Value{v}); ok {
			return Selection{Options: out, Tier: TierExplicitValues}
		}
	}

	return Selection{Options: s.sample(pool), Tier: TierRandom}
}

func (s *Selector) fromLegacyRanking(pool []catalog.DecisionOption, basis store.Basis) ([]catalog.DecisionOption, bool) {
	if basis != store.BasisMetrics {
		if items, ok := s.prefs.LegacyValueRanking(); ok {
			if out, ok := ByValueRanking(pool, RankedValues(items)); ok {
				return out, true
			}
		}
	}
	if basis != store.BasisValues {
		if items, ok := s.prefs.LegacyMetricRanking(); ok {
			return ByMetricRanking(pool, RankedMetrics(items))
		}
	}
	return nil, false
}

func (s *Selector) mostStatedValue() (catalog.Value, bool) {
	explicit, ok := s.prefs.ExplicitValues()
	if !ok {
		return "", false
	}
	counts := make(map[catalog.Value]int)
	var order []catalog.Value
	for _, e := range explicit {
		v, ok := catalog.ParseValue(e.ValueSelected)
		if !ok {
			s.log.Debug("ignoring unknown explicit value", "value", e.ValueSelected)
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	var best catalog.Value
	for _, v := range order {
		if best == "" || counts[v] > counts[best] {
			best = v
		}
	}
	return best, best != ""
}

func (s *Selector) sample(pool []catalog.DecisionOption) []catalog.DecisionOption {
	out := append([]catalog.DecisionOption(nil), pool...)
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > 2 {
		out = out[:2]
	}
	return out
}

// #endregion select-initial

// #region alternatives
// AlternativeOptions returns every scenario option that is neither in the initial
// pair nor already added, tagged as an alternative. Pure; repeated calls with the
// same inputs return the same set.
func AlternativeOptions(sc catalog.Scenario, initial, added []catalog.DecisionOption) []catalog.DecisionOption {
	shown := make(map[string]bool, len(initial)+len(added))
	for _, o := range initial {
		shown[o.ID] = true
	}
	for _, o := range added {
		shown[o.ID] = true
	}
	var out []catalog.DecisionOption
	for _, o := range sc.AllOptions() {
		if shown[o.ID] {
			continue
		}
		o.Alternative = true
		out = append(out, o)
	}
	return out
}

// #endregion alternatives

// #region ranking-rules
// ByValueRanking applies the value rule: options labelled with the top-2 ranked
// values, in ranking order. A single match is paired with the first non-matching
// option. No match is not a usable result.
func ByValueRanking(pool []catalog.DecisionOption, ranking []catalog.Value) ([]catalog.DecisionOption, bool) {
	top := ranking
	if len(top) > 2 {
		top = top[:2]
	}
	var matched []catalog.DecisionOption
	used := make(map[string]bool)
	for _, v := range top {
		for _, o := range pool {
			if o.Label == v && !used[o.ID] {
				matched = append(matched, o)
				used[o.ID] = true
			}
		}
	}
	return pad(pool, matched)
}

// FilterByValues keeps options whose label is in set, in pool order, padded to
// two with the first non-matching option.
func FilterByValues(pool []catalog.DecisionOption, set []catalog.Value) ([]catalog.DecisionOption, bool) {
	in := make(map[catalog.Value]bool, len(set))
	for _, v := range set {
		in[v] = true
	}
	var matched []catalog.DecisionOption
	for _, o := range pool {
		if in[o.Label] {
			matched = append(matched, o)
		}
	}
	return pad(pool, matched)
}

// ByMetricRanking applies the metric rule on the top-ranked metric: livesSaved
// higher is better, every other metric compares by absolute magnitude, lower is
// better. Ties keep input order.
func ByMetricRanking(pool []catalog.DecisionOption, ranking []catalog.Metric) ([]catalog.DecisionOption, bool) {
	if len(ranking) == 0 || len(pool) == 0 {
		return nil, false
	}
	sorted := SortByMetric(pool, ranking[0])
	if len(sorted) > 2 {
		sorted = sorted[:2]
	}
	return sorted, true
}

// SortByMetric returns a stably sorted copy of pool, best option first.
func SortByMetric(pool []catalog.DecisionOption, m catalog.Metric) []catalog.DecisionOption {
	out := append([]catalog.DecisionOption(nil), pool...)
	sort.SliceStable(out, func(i, j int) bool {
		return metricScore(out[i], m) > metricScore(out[j], m)
	})
	return out
}

// RankOptions orders the visible options by a freshly submitted ranking and
// returns the top two for the ranked-options sub-view.
func RankOptions(visible []catalog.DecisionOption, basis store.Basis, items []store.RankItem) []catalog.DecisionOption {
	var out []catalog.DecisionOption
	if basis == store.BasisMetrics {
		metricsOrder := RankedMetrics(items)
		if len(metricsOrder) == 0 {
			out = append(out, visible...)
		} else {
			out = SortByMetric(visible, metricsOrder[0])
		}
	} else {
		pos := make(map[catalog.Value]int)
		for i, v := range RankedValues(items) {
			pos[v] = i
		}
		rank := func(o catalog.DecisionOption) int {
			if p, ok := pos[o.Label]; ok {
				return p
			}
			return len(pos)
		}
		out = append(out, visible...)
		sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	}
	if len(out) > 2 {
		out = out[:2]
	}
	return out
}

// RankedValues converts persisted rank items to values, skipping unknown ids.
func RankedValues(items []store.RankItem) []catalog.Value {
	var out []catalog.Value
	for _, it := range items {
		if v, ok := catalog.ParseValue(it.ID); ok {
			out = append(out, v)
		} else if v, ok := catalog.ParseValue(it.Label); ok {
			out = append(out, v)
		}
	}
	return out
}

// RankedMetrics converts persisted rank items to metrics, skipping unknown ids.
func RankedMetrics(items []store.RankItem) []catalog.Metric {
	var out []catalog.Metric
	for _, it := range items {
		if m, ok := catalog.ParseMetric(it.ID); ok {
			out = append(out, m)
		}
	}
	return out
}

// #endregion ranking-rules

// #region helpers
// metricScore maps an option to a higher-is-better score for m.
func metricScore(o catalog.DecisionOption, m catalog.Metric) int {
	v := o.Impact.Get(m)
	if m == catalog.MetricLivesSaved {
		return v
	}
	if v < 0 {
		v = -v
	}
	return -v
}

func pad(pool, matched []catalog.DecisionOption) ([]catalog.DecisionOption, bool) {
	switch {
	case len(matched) >= 2:
		return matched[:2], true
	case len(matched) == 1:
		for _, o := range pool {
			if o.ID != matched[0].ID {
				return []catalog.DecisionOption{matched[0], o}, true
			}
		}
		return matched, true
	}
	return nil, false
}

// #endregion helpers
