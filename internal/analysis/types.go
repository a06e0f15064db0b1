package analysis

import (
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/metrics"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region config
// Weights for the stability score. They sum to 100.
const (
	ExplicitWeight = 40.0
	StableWeight   = 60.0
)

// #endregion config

// #region input
// Input is everything the analyzer reads. Final is nil when no metrics were sealed.
type Input struct {
	Outcomes []store.Outcome
	Explicit []store.ExplicitValue
	Deep     []store.DeepValue
	Final    *metrics.Simulation
}

// #endregion input

// #region result
// Status reports whether the analysis could run.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
)

// Classification is the per-outcome verdict.
type Classification struct {
	ScenarioID string              `json:"scenarioId"`
	OptionID   string              `json:"optionId"`
	Label      catalog.Value       `json:"label"`
	Class      store.DeepValueType `json:"class"`
}

// Recap counts how confirmed scenarios were reached.
type Recap struct {
	CVRCommits int `json:"cvrCommits"`
	APACommits int `json:"apaCommits"`
	Unchanged  int `json:"unchanged"`
}

// Result is the end-of-session report. Only Status and Missing are set when
// Status is StatusInsufficientData.
type Result struct {
	Status             Status                `json:"status"`
	Missing            []string              `json:"missing,omitempty"`
	ExplicitMatchRatio float64               `json:"explicitMatchRatio"`
	StableMatchRatio   float64               `json:"stableMatchRatio"`
	StabilityScore     float64               `json:"stabilityScore"`
	ExplicitCounts     map[catalog.Value]int `json:"explicitCounts,omitempty"`
	StableValues       []catalog.Value       `json:"stableValues,omitempty"`
	ChoiceCounts       map[catalog.Value]int `json:"choiceCounts,omitempty"`
	Classifications    []Classification      `json:"classifications,omitempty"`
	FinalMetrics       metrics.Simulation    `json:"finalMetrics"`
	Recap              *Recap                `json:"recap,omitempty"`
}

// #endregion result
