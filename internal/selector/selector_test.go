package selector

import (
	"math/rand/v2"
	"testing"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

func opt(id string, label catalog.Value, impact catalog.Impact) catalog.DecisionOption {
	return catalog.DecisionOption{ID: id, Title: id, Label: label, Impact: impact}
}

// testScenario has four defaults so tier results are distinguishable from padding.
func testScenario() catalog.Scenario {
	return catalog.Scenario{
		ID: "sc",
		Options: []catalog.DecisionOption{
			opt("a", catalog.ValueSafety, catalog.Impact{LivesSaved: 100, FirefightingResource: -30}),
			opt("b", catalog.ValueEfficiency, catalog.Impact{LivesSaved: 300, FirefightingResource: -10}),
			opt("c", catalog.ValueFairness, catalog.Impact{LivesSaved: 200, FirefightingResource: -5}),
			opt("d", catalog.ValueSustainability, catalog.Impact{LivesSaved: 300, FirefightingResource: 0}),
		},
		AlternativeOptions: []catalog.DecisionOption{
			opt("x", catalog.ValueNonmaleficence, catalog.Impact{}),
		},
	}
}

func newSelector(t *testing.T) (*Selector, *store.Store) {
	t.Helper()
	prefs := store.New(store.NewMemoryRepository(), nil)
	return NewSelector(prefs, rand.New(rand.NewPCG(1, 2)), nil), prefs
}

func ids(opts []catalog.DecisionOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.ID
	}
	return out
}

func assertIDs(t *testing.T, got []catalog.DecisionOption, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func valueItems(vs ...catalog.Value) []store.RankItem {
	out := make([]store.RankItem, len(vs))
	for i, v := range vs {
		out[i] = store.RankItem{ID: string(v), Label: string(v)}
	}
	return out
}

func metricItems(ms ...catalog.Metric) []store.RankItem {
	out := make([]store.RankItem, len(ms))
	for i, m := range ms {
		out[i] = store.RankItem{ID: string(m), Label: string(m)}
	}
	return out
}

func TestFirstScenarioIsRandomFromDefaults(t *testing.T) {
	s, prefs := newSelector(t)
	// Signals are ignored for the first scenario.
	prefs.SetRanking(store.BasisValues, valueItems(catalog.ValueSafety, catalog.ValueEfficiency))

	sc := testScenario()
	sel := s.SelectInitial(sc, 0)
	if sel.Tier != TierFirstScenario {
		t.Fatalf("expected first_scenario tier, got %s", sel.Tier)
	}
	if len(sel.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(sel.Options))
	}
	for _, o := range sel.Options {
		if _, ok := sc.FindOption(o.ID); !ok || o.ID == "x" {
			t.Fatalf("option %s not drawn from defaults", o.ID)
		}
	}
	if sel.Options[0].ID == sel.Options[1].ID {
		t.Fatal("expected distinct options")
	}
}

func TestValueRankingTier(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetRanking(store.BasisValues, valueItems(catalog.ValueFairness, catalog.ValueSafety, catalog.ValueEfficiency))
	prefs.SetPreferenceBasis(store.BasisValues)

	sel := s.SelectInitial(testScenario(), 1)
	if sel.Tier != TierValueRanking {
		t.Fatalf("expected value_ranking, got %s", sel.Tier)
	}
	assertIDs(t, sel.Options, "c", "a")
}

func TestValueRankingSingleMatchIsPadded(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetRanking(store.BasisValues, valueItems(catalog.ValueEfficiency, catalog.ValueNonmaleficence))

	sel := s.SelectInitial(testScenario(), 1)
	assertIDs(t, sel.Options, "b", "a")
}

func TestValueRankingPrecedesMetricRanking(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetRanking(store.BasisMetrics, metricItems(catalog.MetricFirefightingResource, catalog.MetricLivesSaved))
	prefs.SetPreferenceBasis(store.BasisMetrics)
	// A later reflection commit rewrites the value ranking; the basis flag stays metrics.
	prefs.SetRanking(store.BasisValues, valueItems(catalog.ValueSafety, catalog.ValueFairness))

	sel := s.SelectInitial(testScenario(), 2)
	if sel.Tier != TierValueRanking {
		t.Fatalf("expected value_ranking, got %s", sel.Tier)
	}
	assertIDs(t, sel.Options, "a", "c")
}

func TestMetricRankingWhenNoValueMatches(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetRanking(store.BasisValues, valueItems(catalog.ValueNonmaleficence))
	prefs.SetRanking(store.BasisMetrics, metricItems(catalog.MetricFirefightingResource, catalog.MetricLivesSaved))

	sel := s.SelectInitial(testScenario(), 2)
	if sel.Tier != TierMetricRanking {
		t.Fatalf("expected metric_ranking, got %s", sel.Tier)
	}
	// Smallest absolute resource impact first, ties keep input order.
	assertIDs(t, sel.Options, "d", "c")
}

func TestMetricRankingLivesSavedHigherIsBetter(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetRanking(store.BasisMetrics, metricItems(catalog.MetricLivesSaved))

	sel := s.SelectInitial(testScenario(), 1)
	if sel.Tier != TierMetricRanking {
		t.Fatalf("expected metric_ranking, got %s", sel.Tier)
	}
	assertIDs(t, sel.Options, "b", "d")
}

func TestValueRankingWithoutMatchFallsThrough(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetRanking(store.BasisValues, valueItems(catalog.ValueNonmaleficence))
	prefs.SetFinalValues([]store.NamedValue{{Name: "Sustainability"}, {Name: "Safety"}})

	sel := s.SelectInitial(testScenario(), 1)
	if sel.Tier != TierStableValues {
		t.Fatalf("expected stable_values, got %s", sel.Tier)
	}
	assertIDs(t, sel.Options, "a", "d")
}

func TestStableValuesSingleMatchIsPadded(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetFinalValues([]store.NamedValue{{Name: "Sustainability"}, {Name: "Nonmaleficence"}})
	prefs.SetExplicitValues([]store.ExplicitValue{{ValueSelected: "Fairness"}})

	sel := s.SelectInitial(testScenario(), 1)
	if sel.Tier != TierStableValues {
		t.Fatalf("expected stable_values to keep a single match, got %s", sel.Tier)
	}
	assertIDs(t, sel.Options, "d", "a")
}

func TestLegacyRankingRequiresRankedViewAccess(t *testing.T) {
	s, prefs := newSelector(t)
	repo := prefs.Repository()
	repo.Set(store.KeyLegacyValueRanking, `[{"id":"sustainability","label":"Sustainability"}]`)

	if sel := s.SelectInitial(testScenario(), 1); sel.Tier != TierRandom {
		t.Fatalf("expected random without ranked view access, got %s", sel.Tier)
	}

	prefs.SetRankedViewAccessed(true)
	sel := s.SelectInitial(testScenario(), 1)
	if sel.Tier != TierLegacyRanking {
		t.Fatalf("expected legacy_ranking, got %s", sel.Tier)
	}
	assertIDs(t, sel.Options, "d", "a")
}

func TestLegacyMetricRankingUsesFlag(t *testing.T) {
	s, prefs := newSelector(t)
	repo := prefs.Repository()
	repo.Set(store.KeyLegacyValueRanking, `[{"id":"safety","label":"Safety"}]`)
	repo.Set(store.KeyLegacyMetricRanking, `[{"id":"livesSaved","label":"Lives saved"}]`)
	prefs.SetRankedViewAccessed(true)
	prefs.SetPreferenceBasis(store.BasisMetrics)

	sel := s.SelectInitial(testScenario(), 1)
	if sel.Tier != TierLegacyRanking {
		t.Fatalf("expected legacy_ranking, got %s", sel.Tier)
	}
	assertIDs(t, sel.Options, "b", "d")
}

func TestExplicitValuesTier(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetExplicitValues([]store.ExplicitValue{
		{ValueSelected: "Fairness"},
		{ValueSelected: "Efficiency"},
		{ValueSelected: "Efficiency"},
		{ValueSelected: "Unknown"},
	})

	sel := s.SelectInitial(testScenario(), 1)
	if sel.Tier != TierExplicitValues {
		t.Fatalf("expected explicit_values, got %s", sel.Tier)
	}
	assertIDs(t, sel.Options, "b", "a")
}

func TestExplicitValuesTieGoesToFirstStated(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetExplicitValues([]store.ExplicitValue{
		{ValueSelected: "Fairness"},
		{ValueSelected: "Safety"},
	})

	sel := s.SelectInitial(testScenario(), 1)
	assertIDs(t, sel.Options, "c", "a")
}

func TestRandomFallback(t *testing.T) {
	s, _ := newSelector(t)
	sel := s.SelectInitial(testScenario(), 1)
	if sel.Tier != TierRandom {
		t.Fatalf("expected random, got %s", sel.Tier)
	}
	if len(sel.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(sel.Options))
	}
}

func TestRandomIsDeterministicForSeed(t *testing.T) {
	prefs := store.New(store.NewMemoryRepository(), nil)
	a := NewSelector(prefs, rand.New(rand.NewPCG(7, 7)), nil).SelectInitial(testScenario(), 0)
	b := NewSelector(prefs, rand.New(rand.NewPCG(7, 7)), nil).SelectInitial(testScenario(), 0)
	assertIDs(t, b.Options, ids(a.Options)...)
}

func TestNeverSelectsAlternatives(t *testing.T) {
	s, prefs := newSelector(t)
	prefs.SetRanking(store.BasisValues, valueItems(catalog.ValueNonmaleficence, catalog.ValueSafety))

	for i := 0; i < 20; i++ {
		for _, o := range s.SelectInitial(testScenario(), i).Options {
			if o.ID == "x" {
				t.Fatal("alternative option selected initially")
			}
		}
	}
}

func TestAlternativeOptionsExcludesShown(t *testing.T) {
	sc := testScenario()
	initial := sc.Options[:2]
	added := []catalog.DecisionOption{sc.Options[2]}

	alts := AlternativeOptions(sc, initial, added)
	assertIDs(t, alts, "d", "x")
	for _, o := range alts {
		if !o.Alternative {
			t.Fatalf("option %s not tagged as alternative", o.ID)
		}
	}
	again := AlternativeOptions(sc, initial, added)
	assertIDs(t, again, ids(alts)...)
	if sc.Options[3].Alternative {
		t.Fatal("tagging mutated the scenario")
	}
}

func TestRankOptionsByValues(t *testing.T) {
	visible := testScenario().Options
	got := RankOptions(visible, store.BasisValues, valueItems(
		catalog.ValueSustainability, catalog.ValueFairness, catalog.ValueSafety,
		catalog.ValueEfficiency, catalog.ValueNonmaleficence,
	))
	assertIDs(t, got, "d", "c")
}

func TestRankOptionsByMetrics(t *testing.T) {
	visible := testScenario().Options
	got := RankOptions(visible, store.BasisMetrics, metricItems(catalog.MetricFirefightingResource))
	assertIDs(t, got, "d", "c")
}
