package store

import "github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"

// #region keys
// SchemaVersion is recorded in schema_meta when a SQLite repository is opened.
const SchemaVersion = 1

// Keys of the flat key-value schema. Every value is JSON unless noted.
const (
	KeyExplicitValues         = "explicitValues"
	KeyDeepValues             = "deepValues"
	KeyFinalValues            = "finalValues"
	KeyValueRanking           = "MoralValuesReorderList"
	KeyLegacyValueRanking     = "moralValuesRanking"
	KeyMetricRanking          = "SimulationMetricsReorderList"
	KeyLegacyMetricRanking    = "simulationMetricsRanking"
	KeyPreferenceType         = "preferenceTypeFlag" // "true" = metrics, "false" = values
	KeyRankedViewAccessed     = "rankedViewAccessed" // "true" | "false"
	KeyHasReorderedValues     = "hasReorderedValues" // "true" | "false"
	KeyRankingUsage           = "rankingUsageCounts"
	KeyScenarioOutcomes       = "simulationScenarioOutcomes"
	KeyFinalSimulationMetrics = "finalSimulationMetrics"
)

// #endregion keys

// #region basis
// Basis names which kind of ranking a participant submitted.
type Basis string

const (
	BasisMetrics Basis = "metrics"
	BasisValues  Basis = "values"
)

// ParseBasis accepts "metrics"/"values" and the stored flag form "true"/"false".
func ParseBasis(s string) (Basis, bool) {
	switch s {
	case "metrics", "true":
		return BasisMetrics, true
	case "values", "false":
		return BasisValues, true
	}
	return "", false
}

// #endregion basis

// #region records
// ExplicitValue is one answer from the explicit-preference phase.
type ExplicitValue struct {
	ValueSelected string `json:"value_selected"`
}

// DeepValueType classifies a value from the deep-assessment phase.
type DeepValueType string

const (
	DeepStable           DeepValueType = "Stable"
	DeepContextDependent DeepValueType = "Context-Dependent"
)

// DeepValue is one classified value from the deep-assessment phase.
type DeepValue struct {
	Name string        `json:"name" yaml:"name"`
	Type DeepValueType `json:"type" yaml:"type"`
}

// NamedValue is one entry of the final value list.
type NamedValue struct {
	Name string `json:"name"`
}

// RankItem is one entry of a persisted ranking. Index 0 is most important.
type RankItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Outcome is one confirmed scenario decision. Immutable once appended.
type Outcome struct {
	ScenarioID string                 `json:"scenarioId"`
	Decision   catalog.DecisionOption `json:"decision"`
}

// RankingUsage counts submitted rankings per basis. Diagnostic only.
type RankingUsage struct {
	Metrics int `json:"metrics"`
	Values  int `json:"values"`
}

// #endregion records
