package session

import (
	"time"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
)

// #region phase
// Phase is the position of a scenario instance in the decision flow.
type Phase string

const (
	PhaseReviewing   Phase = "reviewing"
	PhaseJustifying  Phase = "justifying"
	PhaseReflecting  Phase = "reflecting"
	PhaseAdapting    Phase = "adapting"
	PhaseSummarizing Phase = "summarizing"
	PhaseConfirmed   Phase = "confirmed"
)

// #endregion phase

// #region path-lock
// PathLock records which reflection branch a scenario instance committed to.
type PathLock string

const (
	LockNone PathLock = "none"
	LockCVR  PathLock = "CVR"
	LockAPA  PathLock = "APA"
)

// ValueChangeType records how the final choice of an instance was reached.
type ValueChangeType string

const (
	ChangeNone      ValueChangeType = "none"
	ChangeCVRCommit ValueChangeType = "CVR_commit"
	ChangeAPACommit ValueChangeType = "APA_commit"
)

// #endregion path-lock

// #region time-spent
// TimeSpent holds the start of an instance and its optional checkpoints.
type TimeSpent struct {
	Start     time.Time  `json:"start"`
	CVR       *time.Time `json:"cvr,omitempty"`
	APA       *time.Time `json:"apa,omitempty"`
	Confirmed *time.Time `json:"confirmed,omitempty"`
}

// #endregion time-spent

// #region state
// State is the per-scenario-instance flow state.
type State struct {
	ScenarioInstanceID string          `json:"scenarioInstanceId"`
	Phase              Phase           `json:"phase"`
	HasExploredAlts    bool            `json:"hasExploredAlts"`
	AlternativesOpen   bool            `json:"alternativesOpen"`
	EnteredCVR         bool            `json:"enteredCVR"`
	EnteredAPA         bool            `json:"enteredAPA"`
	PathLock           PathLock        `json:"pathLock"`
	ValueChangeType    ValueChangeType `json:"valueChangeType"`
	TimeSpent          TimeSpent       `json:"timeSpent"`

	// Selected is the option currently chosen, nil while reviewing.
	Selected *catalog.DecisionOption `json:"selected,omitempty"`
	// Added holds alternatives the participant moved into the visible set.
	Added []catalog.DecisionOption `json:"added,omitempty"`
	// RankedOptions is the two-option sub-view shown after a ranking is submitted.
	RankedOptions []catalog.DecisionOption `json:"rankedOptions,omitempty"`
	// Message is the latest user-visible guidance or warning.
	Message string `json:"message,omitempty"`
}

// NewState returns a fresh instance in the reviewing phase.
func NewState(instanceID string, now time.Time) State {
	return State{
		ScenarioInstanceID: instanceID,
		Phase:              PhaseReviewing,
		PathLock:           LockNone,
		ValueChangeType:    ChangeNone,
		TimeSpent:          TimeSpent{Start: now},
	}
}

// Locked reports whether the adaptive-ranking path has been taken.
func (s State) Locked() bool {
	return s.PathLock == LockAPA
}

// Clone returns a deep copy safe to hand to callers.
func (s State) Clone() State {
	out := s
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	out.Added = append([]catalog.DecisionOption(nil), s.Added...)
	out.RankedOptions = append([]catalog.DecisionOption(nil), s.RankedOptions...)
	return out
}

// #endregion state
