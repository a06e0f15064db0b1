package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/flow"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string            `json:"description"`
	Config      FixtureConfig     `json:"config"`
	Assessment  FixtureAssessment `json:"assessment"`
	Steps       []FixtureStep     `json:"steps"`
}

// FixtureConfig controls the replay session.
type FixtureConfig struct {
	Seed uint64 `json:"seed"`
}

// FixtureAssessment seeds the keys written by the assessment phases before a session.
type FixtureAssessment struct {
	ExplicitValues []string          `json:"explicit_values,omitempty" yaml:"explicit_values"`
	DeepValues     []store.DeepValue `json:"deep_values,omitempty" yaml:"deep_values"`
	FinalValues    []string          `json:"final_values,omitempty" yaml:"final_values"`
}

// FixtureStep is one participant action and what it is expected to produce.
type FixtureStep struct {
	Action   string   `json:"action"`
	OptionID string   `json:"option_id,omitempty"`
	Answer   *bool    `json:"answer,omitempty"`
	Basis    string   `json:"basis,omitempty"`
	Order    []string `json:"order,omitempty"`

	ExpectPhase    string `json:"expect_phase,omitempty"`
	ExpectAccepted *bool  `json:"expect_accepted,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes a fixture from JSON.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("fixture has no steps")
	}
	return &f, nil
}

// Validate checks that every named value is a known value domain and every
// deep value carries a known classification.
func (a FixtureAssessment) Validate() error {
	var errs []error
	for _, v := range a.ExplicitValues {
		if _, ok := catalog.ParseValue(v); !ok {
			errs = append(errs, fmt.Errorf("explicit value %q: unknown value", v))
		}
	}
	for _, d := range a.DeepValues {
		if _, ok := catalog.ParseValue(d.Name); !ok {
			errs = append(errs, fmt.Errorf("deep value %q: unknown value", d.Name))
		}
		if d.Type != store.DeepStable && d.Type != store.DeepContextDependent {
			errs = append(errs, fmt.Errorf("deep value %q: unknown type %q", d.Name, d.Type))
		}
	}
	for _, v := range a.FinalValues {
		if _, ok := catalog.ParseValue(v); !ok {
			errs = append(errs, fmt.Errorf("final value %q: unknown value", v))
		}
	}
	return errors.Join(errs...)
}

// Seed writes the assessment keys into prefs.
func (a FixtureAssessment) Seed(prefs *store.Store) error {
	if len(a.ExplicitValues) > 0 {
		explicit := make([]store.ExplicitValue, len(a.ExplicitValues))
		for i, v := range a.ExplicitValues {
			explicit[i] = store.ExplicitValue{ValueSelected: v}
		}
		if err := prefs.SetExplicitValues(explicit); err != nil {
			return fmt.Errorf("seed explicit values: %w", err)
		}
	}
	if len(a.DeepValues) > 0 {
		if err := prefs.SetDeepValues(a.DeepValues); err != nil {
			return fmt.Errorf("seed deep values: %w", err)
		}
	}
	if len(a.FinalValues) > 0 {
		final := make([]store.NamedValue, len(a.FinalValues))
		for i, v := range a.FinalValues {
			final[i] = store.NamedValue{Name: v}
		}
		if err := prefs.SetFinalValues(final); err != nil {
			return fmt.Errorf("seed final values: %w", err)
		}
	}
	return nil
}

// Command converts a step into the machine command it replays.
func (s FixtureStep) Command() flow.Command {
	return flow.Command{Action: s.Action, OptionID: s.OptionID, Answer: s.Answer, Basis: s.Basis, Order: s.Order}
}

// #endregion fixture-loader
