package logging

import "time"

// #region transition-entry
// TransitionEntry is a single row in the decision_log table: one participant
// action and the phase change it caused, or the guard that rejected it.
type TransitionEntry struct {
	InstanceID string
	ScenarioID string
	Action     string
	FromPhase  string
	ToPhase    string
	Accepted   bool
	DetailJSON string // option_id, answer, basis, order, tier, reason
	CreatedAt  time.Time
}

// #endregion transition-entry

// #region detail
// Detail is the structured payload serialized into decision_log.detail_json.
// Replay fixtures are rebuilt from these fields.
type Detail struct {
	OptionID string   `json:"option_id,omitempty"`
	Answer   *bool    `json:"answer,omitempty"`
	Basis    string   `json:"basis,omitempty"`
	Order    []string `json:"order,omitempty"`
	Tier     string   `json:"tier,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// #endregion detail
