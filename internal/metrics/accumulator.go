package metrics

import "github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"

// #region apply
// Apply is a pure function that folds an option's impact into the cumulative
// metrics. livesSaved and humanCasualties are additive and unclamped; every other
// field is floored at 0.
func Apply(current Simulation, impact catalog.Impact) ApplyResult {
	next := current
	changed := []catalog.Metric{}

	for _, m := range catalog.AllMetrics {
		v := current.Get(m) + impact.Get(m)
		if !unclamped(m) && v < 0 {
			v = 0
		}
		next.set(m, v)
		if v != current.Get(m) {
			changed = append(changed, m)
		}
	}

	return ApplyResult{Next: next, Changed: changed}
}

// #endregion apply

// #region helpers
func unclamped(m catalog.Metric) bool {
	return m == catalog.MetricLivesSaved || m == catalog.MetricHumanCasualties
}

// #endregion helpers
