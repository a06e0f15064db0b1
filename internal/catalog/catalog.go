package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrScenarioIndex is returned when a scenario index is outside the catalog.
var ErrScenarioIndex = errors.New("scenario index out of range")

//go:embed scenarios.yaml
var defaultCatalog []byte

// #region catalog
// Catalog is the ordered, read-only list of scenarios presented in a session.
type Catalog struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Default returns the built-in wildfire catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and validates a YAML catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c.normalizeLabels()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get returns the scenario at index.
func (c *Catalog) Get(index int) (Scenario, error) {
	if index < 0 || index >= len(c.Scenarios) {
		return Scenario{}, fmt.Errorf("get scenario %d: %w", index, ErrScenarioIndex)
	}
	return c.Scenarios[index], nil
}

// Count returns the number of scenarios.
func (c *Catalog) Count() int {
	return len(c.Scenarios)
}

// #endregion catalog

// #region validate
// Validate checks the structural rules the flow engine relies on: unique ids,
// exactly two default options per scenario, and labels inside the taxonomy.
func (c *Catalog) Validate() error {
	if len(c.Scenarios) == 0 {
		return errors.New("catalog has no scenarios")
	}
	scenarioIDs := make(map[string]bool)
	for i, s := range c.Scenarios {
		if s.ID == "" {
			return fmt.Errorf("scenario %d: missing id", i)
		}
		if scenarioIDs[s.ID] {
			return fmt.Errorf("scenario %s: duplicate id", s.ID)
		}
		scenarioIDs[s.ID] = true

		if len(s.Options) != 2 {
			return fmt.Errorf("scenario %s: expected 2 default options, got %d", s.ID, len(s.Options))
		}
		optionIDs := make(map[string]bool)
		for _, o := range s.AllOptions() {
			if o.ID == "" {
				return fmt.Errorf("scenario %s: option with missing id", s.ID)
			}
			if optionIDs[o.ID] {
				return fmt.Errorf("scenario %s: duplicate option id %s", s.ID, o.ID)
			}
			optionIDs[o.ID] = true
			if _, ok := ParseValue(string(o.Label)); !ok {
				return fmt.Errorf("scenario %s: option %s has unknown label %q", s.ID, o.ID, o.Label)
			}
		}
	}
	return nil
}

func (c *Catalog) normalizeLabels() {
	fix := func(opts []DecisionOption) {
		for i := range opts {
			if v, ok := ParseValue(string(opts[i].Label)); ok {
				opts[i].Label = v
			}
			for j := range opts[i].ExpertOpinions {
				if v, ok := ParseValue(string(opts[i].ExpertOpinions[j].Domain)); ok {
					opts[i].ExpertOpinions[j].Domain = v
				}
			}
		}
	}
	for i := range c.Scenarios {
		fix(c.Scenarios[i].Options)
		fix(c.Scenarios[i].AlternativeOptions)
	}
}

// #endregion validate
