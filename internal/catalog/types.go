package catalog

import "strings"

// #region value
// Value identifies one of the five moral values an option can be labelled with.
type Value string

const (
	ValueSafety         Value = "safety"
	ValueEfficiency     Value = "efficiency"
	ValueSustainability Value = "sustainability"
	ValueFairness       Value = "fairness"
	ValueNonmaleficence Value = "nonmaleficence"
)

// AllValues lists the value taxonomy in canonical order.
var AllValues = []Value{
	ValueSafety,
	ValueEfficiency,
	ValueSustainability,
	ValueFairness,
	ValueNonmaleficence,
}

// ParseValue normalizes free-form value names ("Safety", "Non-maleficence")
// to a Value. Returns false for names outside the taxonomy.
func ParseValue(s string) (Value, bool) {
	n := normalize(s)
	for _, v := range AllValues {
		if string(v) == n {
			return v, true
		}
	}
	return "", false
}

// #endregion value

// #region metric
// Metric names one field of the impact / simulation vector.
type Metric string

const (
	MetricLivesSaved              Metric = "livesSaved"
	MetricHumanCasualties         Metric = "humanCasualties"
	MetricFirefightingResource    Metric = "firefightingResource"
	MetricInfrastructureCondition Metric = "infrastructureCondition"
	MetricBiodiversityCondition   Metric = "biodiversityCondition"
	MetricPropertiesCondition     Metric = "propertiesCondition"
	MetricNuclearPowerStation     Metric = "nuclearPowerStation"
)

// AllMetrics lists the seven metrics in canonical order.
var AllMetrics = []Metric{
	MetricLivesSaved,
	MetricHumanCasualties,
	MetricFirefightingResource,
	MetricInfrastructureCondition,
	MetricBiodiversityCondition,
	MetricPropertiesCondition,
	MetricNuclearPowerStation,
}

// ParseMetric matches a metric id case-insensitively.
func ParseMetric(s string) (Metric, bool) {
	n := normalize(s)
	for _, m := range AllMetrics {
		if strings.ToLower(string(m)) == n {
			return m, true
		}
	}
	return "", false
}

// #endregion metric

// #region impact
// Impact is the 7-field delta an option applies to the cumulative metrics.
type Impact struct {
	LivesSaved              int `yaml:"livesSaved" json:"livesSaved"`
	HumanCasualties         int `yaml:"humanCasualties" json:"humanCasualties"`
	FirefightingResource    int `yaml:"firefightingResource" json:"firefightingResource"`
	InfrastructureCondition int `yaml:"infrastructureCondition" json:"infrastructureCondition"`
	BiodiversityCondition   int `yaml:"biodiversityCondition" json:"biodiversityCondition"`
	PropertiesCondition     int `yaml:"propertiesCondition" json:"propertiesCondition"`
	NuclearPowerStation     int `yaml:"nuclearPowerStation" json:"nuclearPowerStation"`
}

// Get returns the delta for a single metric.
func (i Impact) Get(m Metric) int {
	switch m {
	case MetricLivesSaved:
		return i.LivesSaved
	case MetricHumanCasualties:
		return i.HumanCasualties
	case MetricFirefightingResource:
		return i.FirefightingResource
	case MetricInfrastructureCondition:
		return i.InfrastructureCondition
	case MetricBiodiversityCondition:
		return i.BiodiversityCondition
	case MetricPropertiesCondition:
		return i.PropertiesCondition
	case MetricNuclearPowerStation:
		return i.NuclearPowerStation
	}
	return 0
}

// #endregion impact

// #region expert-opinion
// Recommendation is an expert's verdict on an option.
type Recommendation string

const (
	RecommendAccept  Recommendation = "Accept"
	RecommendReject  Recommendation = "Reject"
	RecommendNeutral Recommendation = "Neutral"
)

// ExpertOpinion is one value-domain expert's rationale for an option.
type ExpertOpinion struct {
	Domain         Value          `yaml:"domain" json:"domain"`
	Expert         string         `yaml:"expert" json:"expert"`
	Opinion        string         `yaml:"opinion" json:"opinion"`
	Recommendation Recommendation `yaml:"recommendation" json:"recommendation"`
}

// #endregion expert-opinion

// #region decision-option
// DecisionOption is a single choosable response to a scenario.
type DecisionOption struct {
	ID             string          `yaml:"id" json:"id"`
	Title          string          `yaml:"title" json:"title"`
	Description    string          `yaml:"description" json:"description"`
	Label          Value           `yaml:"label" json:"label"`
	Impact         Impact          `yaml:"impact" json:"impact"`
	RiskInfo       []string        `yaml:"riskInfo" json:"riskInfo,omitempty"`
	ExpertOpinions []ExpertOpinion `yaml:"expertOpinions" json:"expertOpinions,omitempty"`
	Radar          map[Value]int   `yaml:"radar,omitempty" json:"radar,omitempty"`
	CVRQuestion    string          `yaml:"cvrQuestion,omitempty" json:"cvrQuestion,omitempty"`

	// Alternative is set on copies handed out as explore-alternatives entries.
	Alternative bool `yaml:"-" json:"isAlternative,omitempty"`
}

// HasCVRQuestion reports whether the option carries a contradiction question.
func (o DecisionOption) HasCVRQuestion() bool {
	return strings.TrimSpace(o.CVRQuestion) != ""
}

// #endregion decision-option

// #region scenario
// Scenario is one crisis situation with its default pair and alternatives.
type Scenario struct {
	ID                 string           `yaml:"id" json:"id"`
	Title              string           `yaml:"title" json:"title"`
	Description        string           `yaml:"description" json:"description"`
	Options            []DecisionOption `yaml:"options" json:"options"`
	AlternativeOptions []DecisionOption `yaml:"alternativeOptions" json:"alternativeOptions"`
}

// AllOptions returns default options followed by alternatives.
func (s Scenario) AllOptions() []DecisionOption {
	out := make([]DecisionOption, 0, len(s.Options)+len(s.AlternativeOptions))
	out = append(out, s.Options...)
	out = append(out, s.AlternativeOptions...)
	return out
}

// FindOption looks up an option by id among defaults and alternatives.
func (s Scenario) FindOption(id string) (DecisionOption, bool) {
	for _, o := range s.AllOptions() {
		if o.ID == id {
			return o, true
		}
	}
	return DecisionOption{}, false
}

// #endregion scenario

// #region helpers
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// #endregion helpers
