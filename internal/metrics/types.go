package metrics

import "github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"

// #region simulation
// Simulation is the cumulative session metrics vector.
type Simulation struct {
	LivesSaved              int `json:"livesSaved"`
	HumanCasualties         int `json:"humanCasualties"`
	FirefightingResource    int `json:"firefightingResource"`
	InfrastructureCondition int `json:"infrastructureCondition"`
	BiodiversityCondition   int `json:"biodiversityCondition"`
	PropertiesCondition     int `json:"propertiesCondition"`
	NuclearPowerStation     int `json:"nuclearPowerStation"`
}

// Default returns the session-start metrics: no casualty counts, every resource at 100.
func Default() Simulation {
	return Simulation{
		LivesSaved:              0,
		HumanCasualties:         0,
		FirefightingResource:    100,
		InfrastructureCondition: 100,
		BiodiversityCondition:   100,
		PropertiesCondition:     100,
		NuclearPowerStation:     100,
	}
}

// Get returns a single field by metric id.
func (s Simulation) Get(m catalog.Metric) int {
	switch m {
	case catalog.MetricLivesSaved:
		return s.LivesSaved
	case catalog.MetricHumanCasualties:
		return s.HumanCasualties
	case catalog.MetricFirefightingResource:
		return s.FirefightingResource
	case catalog.MetricInfrastructureCondition:
		return s.InfrastructureCondition
	case catalog.MetricBiodiversityCondition:
		return s.BiodiversityCondition
	case catalog.MetricPropertiesCondition:
		return s.PropertiesCondition
	case catalog.MetricNuclearPowerStation:
		return s.NuclearPowerStation
	}
	return 0
}

func (s *Simulation) set(m catalog.Metric, v int) {
	switch m {
	case catalog.MetricLivesSaved:
		s.LivesSaved = v
	case catalog.MetricHumanCasualties:
		s.HumanCasualties = v
	case catalog.MetricFirefightingResource:
		s.FirefightingResource = v
	case catalog.MetricInfrastructureCondition:
		s.InfrastructureCondition = v
	case catalog.MetricBiodiversityCondition:
		s.BiodiversityCondition = v
	case catalog.MetricPropertiesCondition:
		s.PropertiesCondition = v
	case catalog.MetricNuclearPowerStation:
		s.NuclearPowerStation = v
	}
}

// #endregion simulation

// #region apply-result
// ApplyResult bundles everything returned by Apply().
type ApplyResult struct {
	Next Simulation
	// Changed holds the fields whose value differs between current and next,
	// in canonical metric order. Presentation highlight only.
	Changed []catalog.Metric
}

// Has reports whether m is in the changed set.
func (r ApplyResult) Has(m catalog.Metric) bool {
	for _, c := range r.Changed {
		if c == m {
			return true
		}
	}
	return false
}

// #endregion apply-result
