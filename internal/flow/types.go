package flow

import (
	"errors"
	"log/slog"
	"time"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/ranking"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/selector"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/session"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region errors
var (
	ErrInvalidPhase       = errors.New("action not allowed in current phase")
	ErrUnknownOption      = errors.New("unknown option")
	ErrAlternativesClosed = errors.New("alternatives panel not open")
	ErrSessionComplete    = errors.New("session complete")
	ErrClosed             = errors.New("machine closed")
)

// #endregion errors

// #region collaborators
// Catalog is the scenario source consumed by the machine.
type Catalog interface {
	Get(index int) (catalog.Scenario, error)
	Count() int
}

// Recorder receives one entry per accepted or rejected action.
type Recorder interface {
	Record(entry logging.TransitionEntry)
}

// Telemetry receives counters for transitions and guard rejections.
type Telemetry interface {
	Transition(from, to string)
	Rejected(action string)
	ReflectionChecked(triggered bool)
	DecisionConfirmed(last bool)
}

// Deps wires the machine. Catalog, Prefs, Selector and Ranker are required.
type Deps struct {
	Catalog   Catalog
	Prefs     *store.Store
	Selector  *selector.Selector
	Ranker    *ranking.Ranker
	Recorder  Recorder
	Telemetry Telemetry
	Clock     func() time.Time
	NewID     func() string
	Logger    *slog.Logger
}

// #endregion collaborators

// #region actions
// Action names used in the decision log and replay fixtures.
const (
	ActionEnterScenario       = "enter_scenario"
	ActionSelectOption        = "select_option"
	ActionRequestAlternatives = "request_alternatives"
	ActionAddAlternative      = "add_alternative"
	ActionConfirmKeepChoice   = "confirm_keep_choice"
	ActionReviewAlternatives  = "review_alternatives"
	ActionAnswerReflection    = "answer_reflection"
	ActionSubmitRanking       = "submit_ranking"
	ActionSelectRankedOption  = "select_ranked_option"
	ActionConfirmDecision     = "confirm_decision"
	ActionAdvance             = "advance"
	ActionReset               = "reset"
)

// #endregion actions

// #region messages
const (
	MsgExploreFirst = "Please explore the alternative options before confirming your decision."
	MsgPathLocked   = "Your path is locked: you already re-ranked your preferences for this scenario."
	MsgAdvancing    = "Decision confirmed. Moving to the next scenario."
	MsgComplete     = "Decision confirmed. All scenarios are complete."
	MsgRankedReady  = "Choose one of the options ranked by your new preferences."
)

// #endregion messages

// #region transition
// TransitionKind distinguishes advancing to the next scenario from finishing.
type TransitionKind string

const (
	TransitionAdvance  TransitionKind = "advance"
	TransitionComplete TransitionKind = "complete"
)

// Transition is produced by a confirmed decision. Applying it is the caller's
// responsibility, typically after a display delay via Pacer.
type Transition struct {
	Kind       TransitionKind `json:"kind"`
	Generation int            `json:"generation"`
	NextIndex  int            `json:"nextIndex"`
}

// Feedback is the result of a participant action. A rejected action carries a
// message and leaves the state unchanged.
type Feedback struct {
	Accepted   bool
	Message    string
	Phase      session.Phase
	Transition *Transition
}

// #endregion transition
