package analysis

import (
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/flow"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region from-store
// FromStore gathers the analyzer inputs from the persisted keys. Missing keys
// are left empty and surface as insufficient data.
func FromStore(prefs *store.Store) Input {
	in := Input{Outcomes: prefs.Outcomes()}
	in.Explicit, _ = prefs.ExplicitValues()
	in.Deep, _ = prefs.DeepValues()
	if final, ok := prefs.FinalMetrics(); ok {
		in.Final = &final
	}
	return in
}

// #endregion from-store

// #region analyze
// Analyze scores how consistently the confirmed choices followed the values
// stated before the session. Value names match case-insensitively.
func Analyze(in Input) Result {
	var missing []string
	if len(in.Outcomes) == 0 {
		missing = append(missing, store.KeyScenarioOutcomes)
	}
	if len(in.Explicit) == 0 {
		missing = append(missing, store.KeyExplicitValues)
	}
	if len(in.Deep) == 0 {
		missing = append(missing, store.KeyDeepValues)
	}
	if in.Final == nil {
		missing = append(missing, store.KeyFinalSimulationMetrics)
	}
	if len(missing) > 0 {
		return Result{Status: StatusInsufficientData, Missing: missing}
	}

	explicit := make(map[catalog.Value]int)
	for _, e := range in.Explicit {
		if v, ok := catalog.ParseValue(e.ValueSelected); ok {
			explicit[v]++
		}
	}
	stable := make(map[catalog.Value]bool)
	var stableList []catalog.Value
	for _, d := range in.Deep {
		if d.Type != store.DeepStable {
			continue
		}
		if v, ok := catalog.ParseValue(d.Name); ok && !stable[v] {
			stable[v] = true
			stableList = append(stableList, v)
		}
	}

	res := Result{
		Status:         StatusOK,
		ExplicitCounts: explicit,
		StableValues:   stableList,
		ChoiceCounts:   make(map[catalog.Value]int),
		FinalMetrics:   *in.Final,
	}
	var explicitHits, stableHits int
	for _, o := range in.Outcomes {
		label := o.Decision.Label
		res.ChoiceCounts[label]++
		if explicit[label] > 0 {
			explicitHits++
		}
		class := store.DeepContextDependent
		if stable[label] {
			stableHits++
			class = store.DeepStable
		}
		res.Classifications = append(res.Classifications, Classification{
			ScenarioID: o.ScenarioID,
			OptionID:   o.Decision.ID,
			Label:      label,
			Class:      class,
		})
	}

	n := float64(len(in.Outcomes))
	res.ExplicitMatchRatio = float64(explicitHits) / n
	res.StableMatchRatio = float64(stableHits) / n
	res.StabilityScore = res.ExplicitMatchRatio*ExplicitWeight + res.StableMatchRatio*StableWeight
	return res
}

// #endregion analyze

// #region recap
// RecapFromLog counts, per confirmed scenario instance, whether the choice came
// through a reflection commit, an adaptive ranking commit, or neither. Reviewing
// alternatives discards an earlier commit along with the selection.
func RecapFromLog(entries []logging.TransitionEntry) Recap {
	type instance struct {
		cvr, apa, confirmed bool
	}
	byID := make(map[string]*instance)
	var order []string
	for _, e := range entries {
		if !e.Accepted {
			continue
		}
		inst, ok := byID[e.InstanceID]
		if !ok {
			inst = &instance{}
			byID[e.InstanceID] = inst
			order = append(order, e.InstanceID)
		}
		switch e.Action {
		case flow.ActionAnswerReflection:
			if d, err := logging.DecodeDetail(e.DetailJSON); err == nil && d.Answer != nil && *d.Answer {
				inst.cvr = true
			}
		case flow.ActionSelectRankedOption:
			inst.apa = true
		case flow.ActionReviewAlternatives:
			inst.cvr, inst.apa = false, false
		case flow.ActionConfirmDecision:
			inst.confirmed = true
		}
	}

	var r Recap
	for _, id := range order {
		inst := byID[id]
		if !inst.confirmed {
			continue
		}
		switch {
		case inst.apa:
			r.APACommits++
		case inst.cvr:
			r.CVRCommits++
		default:
			r.Unchanged++
		}
	}
	return r
}

// #endregion recap
