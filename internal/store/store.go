package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/metrics"
)

// #region store
// Store is the typed view over a Repository. Every read is parse-or-default:
// missing or malformed entries are logged and reported as absent so callers fall
// through to their next fallback.
type Store struct {
	repo Repository
	log  *slog.Logger
}

// New wraps a repository. logger may be nil.
func New(repo Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{repo: repo, log: logger}
}

// Repository returns the wrapped repository.
func (s *Store) Repository() Repository {
	return s.repo
}

// #endregion store

// #region read-boundary
func readJSON[T any](s *Store, key string) (T, bool) {
	var zero T
	raw, ok, err := s.repo.Get(key)
	if err != nil {
		s.log.Warn("store read failed", "key", key, "err", err)
		return zero, false
	}
	if !ok || raw == "" {
		return zero, false
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.log.Warn("malformed store entry", "key", key, "err", err)
		return zero, false
	}
	return v, true
}

func writeJSON(s *Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.repo.Set(key, string(data))
}

func (s *Store) readBool(key string) (bool, bool) {
	raw, ok, err := s.repo.Get(key)
	if err != nil {
		s.log.Warn("store read failed", "key", key, "err", err)
		return false, false
	}
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		s.log.Warn("malformed store entry", "key", key, "err", err)
		return false, false
	}
	return b, true
}

func (s *Store) writeBool(key string, b bool) error {
	return s.repo.Set(key, strconv.FormatBool(b))
}

// #endregion read-boundary

// #region assessment-inputs
// ExplicitValues returns the explicit-preference answers, if any.
func (s *Store) ExplicitValues() ([]ExplicitValue, bool) {
	v, ok := readJSON[[]ExplicitValue](s, KeyExplicitValues)
	return v, ok && len(v) > 0
}

func (s *Store) SetExplicitValues(v []ExplicitValue) error {
	return writeJSON(s, KeyExplicitValues, v)
}

// DeepValues returns the deep-assessment classification, if any.
func (s *Store) DeepValues() ([]DeepValue, bool) {
	v, ok := readJSON[[]DeepValue](s, KeyDeepValues)
	return v, ok && len(v) > 0
}

func (s *Store) SetDeepValues(v []DeepValue) error {
	return writeJSON(s, KeyDeepValues, v)
}

// FinalValues returns the ordered final value list, if any.
func (s *Store) FinalValues() ([]NamedValue, bool) {
	v, ok := readJSON[[]NamedValue](s, KeyFinalValues)
	return v, ok && len(v) > 0
}

func (s *Store) SetFinalValues(v []NamedValue) error {
	return writeJSON(s, KeyFinalValues, v)
}

// StableValueSet returns the top-2 recognised values of the final value list.
func (s *Store) StableValueSet() []catalog.Value {
	final, ok := s.FinalValues()
	if !ok {
		return nil
	}
	var out []catalog.Value
	for _, nv := range final {
		v, ok := catalog.ParseValue(nv.Name)
		if !ok {
			continue
		}
		out = append(out, v)
		if len(out) == 2 {
			break
		}
	}
	return out
}

// #endregion assessment-inputs

// #region rankings
// ValueRanking returns the current value ranking.
func (s *Store) ValueRanking() ([]RankItem, bool) {
	return s.ranking(KeyValueRanking)
}

// LegacyValueRanking returns the value ranking stored under the older key.
func (s *Store) LegacyValueRanking() ([]RankItem, bool) {
	return s.ranking(KeyLegacyValueRanking)
}

// MetricRanking returns the current metric ranking.
func (s *Store) MetricRanking() ([]RankItem, bool) {
	return s.ranking(KeyMetricRanking)
}

// LegacyMetricRanking returns the metric ranking stored under the older key.
func (s *Store) LegacyMetricRanking() ([]RankItem, bool) {
	return s.ranking(KeyLegacyMetricRanking)
}

func (s *Store) ranking(key string) ([]RankItem, bool) {
	v, ok := readJSON[[]RankItem](s, key)
	return v, ok && len(v) > 0
}

// SetRanking writes a ranking under both the current and legacy key for basis.
func (s *Store) SetRanking(basis Basis, items []RankItem) error {
	current, legacy := KeyValueRanking, KeyLegacyValueRanking
	if basis == BasisMetrics {
		current, legacy = KeyMetricRanking, KeyLegacyMetricRanking
	}
	if err := writeJSON(s, current, items); err != nil {
		return err
	}
	return writeJSON(s, legacy, items)
}

// PreferenceBasis returns the authoritative ranking basis, if one was stored.
func (s *Store) PreferenceBasis() (Basis, bool) {
	raw, ok, err := s.repo.Get(KeyPreferenceType)
	if err != nil {
		s.log.Warn("store read failed", "key", KeyPreferenceType, "err", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	b, ok := ParseBasis(raw)
	if !ok {
		s.log.Warn("malformed store entry", "key", KeyPreferenceType, "value", raw)
		return "", false
	}
	return b, true
}

func (s *Store) SetPreferenceBasis(b Basis) error {
	return s.writeBool(KeyPreferenceType, b == BasisMetrics)
}

// RankingUsage returns the per-basis submission counters.
func (s *Store) RankingUsage() RankingUsage {
	v, _ := readJSON[RankingUsage](s, KeyRankingUsage)
	return v
}

func (s *Store) SetRankingUsage(u RankingUsage) error {
	return writeJSON(s, KeyRankingUsage, u)
}

// #endregion rankings

// #region flags
// RankedViewAccessed reports whether the ranked-options view was ever opened.
func (s *Store) RankedViewAccessed() bool {
	b, _ := s.readBool(KeyRankedViewAccessed)
	return b
}

func (s *Store) SetRankedViewAccessed(b bool) error {
	return s.writeBool(KeyRankedViewAccessed, b)
}

// HasReorderedValues reports whether a ranking was confirmed in the current scenario.
func (s *Store) HasReorderedValues() bool {
	b, _ := s.readBool(KeyHasReorderedValues)
	return b
}

func (s *Store) SetHasReorderedValues(b bool) error {
	return s.writeBool(KeyHasReorderedValues, b)
}

// #endregion flags

// #region outcomes
// Outcomes returns the confirmed decision log in order.
func (s *Store) Outcomes() []Outcome {
	v, _ := readJSON[[]Outcome](s, KeyScenarioOutcomes)
	return v
}

// AppendOutcome appends to the outcome log. Not atomic with concurrent writers.
func (s *Store) AppendOutcome(o Outcome) error {
	outcomes := s.Outcomes()
	outcomes = append(outcomes, o)
	if err := writeJSON(s, KeyScenarioOutcomes, outcomes); err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}
	return nil
}

// FinalMetrics returns the sealed end-of-session metrics.
func (s *Store) FinalMetrics() (metrics.Simulation, bool) {
	return readJSON[metrics.Simulation](s, KeyFinalSimulationMetrics)
}

func (s *Store) SetFinalMetrics(m metrics.Simulation) error {
	return writeJSON(s, KeyFinalSimulationMetrics, m)
}

// #endregion outcomes

// #region session-reset
// ClearSession removes the per-session keys (outcome log, sealed metrics,
// reorder flag) so a new session starts from an empty log. Assessment inputs
// and rankings are kept.
func (s *Store) ClearSession() error {
	for _, key := range []string{KeyScenarioOutcomes, KeyFinalSimulationMetrics, KeyHasReorderedValues} {
		if err := s.repo.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

// #endregion session-reset
