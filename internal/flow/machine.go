package flow

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/conflict"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/metrics"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/ranking"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/selector"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/session"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region machine
// Machine sequences one participant session through the scenario catalog.
// All methods are safe for concurrent use; the deferred advance and participant
// actions are serialised by a single mutex.
type Machine struct {
	mu sync.Mutex

	catalog   Catalog
	prefs     *store.Store
	selector  *selector.Selector
	ranker    *ranking.Ranker
	recorder  Recorder
	telemetry Telemetry
	now       func() time.Time
	newID     func() string
	log       *slog.Logger

	index    int
	scenario catalog.Scenario
	initial  []catalog.DecisionOption
	tier     selector.Tier
	state    session.State

	sim     metrics.Simulation
	changed []catalog.Metric

	generation int
	pending    *Transition
	done       bool
	closed     bool
}

// New creates a machine positioned on the first scenario with default metrics.
func New(deps Deps) (*Machine, error) {
	if deps.Catalog == nil || deps.Prefs == nil || deps.Selector == nil || deps.Ranker == nil {
		return nil, errors.New("new machine: catalog, prefs, selector and ranker are required")
	}
	if deps.Catalog.Count() == 0 {
		return nil, errors.New("new machine: catalog is empty")
	}
	m := &Machine{
		catalog:   deps.Catalog,
		prefs:     deps.Prefs,
		selector:  deps.Selector,
		ranker:    deps.Ranker,
		recorder:  deps.Recorder,
		telemetry: deps.Telemetry,
		now:       deps.Clock,
		newID:     deps.NewID,
		log:       deps.Logger,
		sim:       metrics.Default(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if err := m.enterScenario(0); err != nil {
		return nil, err
	}
	return m, nil
}

// #endregion machine

// #region queries
// CurrentOptions returns the initial pair followed by any added alternatives.
func (m *Machine) CurrentOptions() []catalog.DecisionOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible()
}

// AlternativeOptions returns the options not yet shown in this instance.
func (m *Machine) AlternativeOptions() []catalog.DecisionOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	return selector.AlternativeOptions(m.scenario, m.initial, m.state.Added)
}

// State returns a copy of the current instance state.
func (m *Machine) State() session.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Metrics returns the cumulative metrics and the fields changed by the last confirm.
func (m *Machine) Metrics() (metrics.Simulation, []catalog.Metric) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim, append([]catalog.Metric(nil), m.changed...)
}

// Scenario returns the current scenario and its index.
func (m *Machine) Scenario() (catalog.Scenario, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scenario, m.index
}

// Tier returns the selector tier that produced the current initial pair.
func (m *Machine) Tier() selector.Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tier
}

// Pending returns the transition awaiting Advance, if any.
func (m *Machine) Pending() (Transition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return Transition{}, false
	}
	return *m.pending, true
}

// ValuesReordered reports whether a ranking was submitted for the current
// scenario instance. Shown on the summary view.
func (m *Machine) ValuesReordered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs.HasReorderedValues()
}

// Done reports whether the final scenario has been confirmed.
func (m *Machine) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Close stops the machine. Later actions fail and pending transitions are dropped.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.pending = nil
}

// #endregion queries

// #region reviewing
// SelectOption chooses a visible option and moves to Justifying.
func (m *Machine) SelectOption(optionID string) (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionSelectOption
	detail := logging.Detail{OptionID: optionID}
	if err := m.require(action, detail, session.PhaseReviewing); err != nil {
		return Feedback{}, err
	}
	opt, ok := findOption(m.visible(), optionID)
	if !ok {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("select %q: %w", optionID, ErrUnknownOption))
	}
	m.state.Selected = &opt
	m.state.RankedOptions = nil
	m.state.Message = ""
	return m.moveTo(action, session.PhaseJustifying, detail), nil
}

// RequestAlternatives opens the alternatives panel.
func (m *Machine) RequestAlternatives() (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionRequestAlternatives
	if err := m.require(action, logging.Detail{}, session.PhaseReviewing); err != nil {
		return Feedback{}, err
	}
	m.state.HasExploredAlts = true
	m.state.AlternativesOpen = true
	return m.moveTo(action, session.PhaseReviewing, logging.Detail{}), nil
}

// AddAlternative moves an alternative into the visible set for this instance.
func (m *Machine) AddAlternative(optionID string) (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionAddAlternative
	detail := logging.Detail{OptionID: optionID}
	if err := m.require(action, detail, session.PhaseReviewing); err != nil {
		return Feedback{}, err
	}
	if !m.state.AlternativesOpen {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("add %q: %w", optionID, ErrAlternativesClosed))
	}
	opt, ok := findOption(selector.AlternativeOptions(m.scenario, m.initial, m.state.Added), optionID)
	if !ok {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("add %q: %w", optionID, ErrUnknownOption))
	}
	m.state.Added = append(m.state.Added, opt)
	return m.moveTo(action, session.PhaseReviewing, detail), nil
}

// #endregion reviewing

// #region justifying
// ConfirmKeepChoice runs the contradiction check once and routes to Reflecting
// or Summarizing.
func (m *Machine) ConfirmKeepChoice() (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionConfirmKeepChoice
	if err := m.require(action, logging.Detail{}, session.PhaseJustifying); err != nil {
		return Feedback{}, err
	}
	chosen := *m.state.Selected
	check := conflict.Check(chosen, m.prefs.StableValueSet(), m.state)
	if m.telemetry != nil {
		m.telemetry.ReflectionChecked(check.Trigger)
	}
	detail := logging.Detail{OptionID: chosen.ID, Reason: check.Reason}
	if check.Trigger {
		m.state.EnteredCVR = true
		m.state.Message = chosen.CVRQuestion
		return m.moveTo(action, session.PhaseReflecting, detail), nil
	}
	m.state.Message = ""
	return m.moveTo(action, session.PhaseSummarizing, detail), nil
}

// ReviewAlternatives clears the selection and returns to Reviewing with the
// alternatives panel open. Allowed from Justifying and Summarizing.
func (m *Machine) ReviewAlternatives() (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionReviewAlternatives
	if err := m.require(action, logging.Detail{}, session.PhaseJustifying, session.PhaseSummarizing); err != nil {
		return Feedback{}, err
	}
	m.state.Selected = nil
	m.state.RankedOptions = nil
	m.state.ValueChangeType = session.ChangeNone // the label described the discarded selection
	m.state.HasExploredAlts = true
	m.state.AlternativesOpen = true
	m.state.Message = ""
	return m.moveTo(action, session.PhaseReviewing, logging.Detail{}), nil
}

// #endregion justifying

// #region reflecting
// AnswerReflection answers the contradiction question. Once the instance is locked
// to the adaptive path every answer is rejected without a state change.
func (m *Machine) AnswerReflection(yes bool) (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionAnswerReflection
	detail := logging.Detail{Answer: &yes}
	if m.closed {
		return Feedback{}, ErrClosed
	}
	if m.state.Locked() {
		return m.reject(action, MsgPathLocked, detail), nil
	}
	if err := m.require(action, detail, session.PhaseReflecting); err != nil {
		return Feedback{}, err
	}
	now := m.now()
	chosen := *m.state.Selected
	detail.OptionID = chosen.ID

	if yes {
		if _, err := m.ranker.PromoteValue(chosen.Label); err != nil {
			return Feedback{}, m.fail(action, detail, fmt.Errorf("answer reflection: %w", err))
		}
		m.state.PathLock = session.LockCVR
		m.state.ValueChangeType = session.ChangeCVRCommit
		m.state.TimeSpent.CVR = &now
		m.state.Message = ""
		return m.moveTo(action, session.PhaseSummarizing, detail), nil
	}

	m.state.EnteredAPA = true
	m.state.PathLock = session.LockAPA
	m.state.TimeSpent.CVR = &now
	m.state.Message = ""
	return m.moveTo(action, session.PhaseAdapting, detail), nil
}

// #endregion reflecting

// #region adapting
// SubmitRanking persists a full ranking and computes the ranked sub-view of the
// visible options. May be called again to revise the ranking.
func (m *Machine) SubmitRanking(basis store.Basis, items []store.RankItem) (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionSubmitRanking
	detail := logging.Detail{Basis: string(basis), Order: itemIDs(items)}
	if err := m.require(action, detail, session.PhaseAdapting); err != nil {
		return Feedback{}, err
	}
	stored, err := m.ranker.Submit(basis, items)
	if err != nil {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("submit ranking: %w", err))
	}
	if err := m.prefs.SetRankedViewAccessed(true); err != nil {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("persist ranked view flag: %w", err))
	}
	if err := m.prefs.SetHasReorderedValues(true); err != nil {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("persist reorder flag: %w", err))
	}
	m.state.RankedOptions = selector.RankOptions(m.visible(), basis, stored)
	m.state.Message = MsgRankedReady
	detail.Order = itemIDs(stored)
	return m.moveTo(action, session.PhaseAdapting, detail), nil
}

// SelectRankedOption picks one of the ranked sub-view options and moves to Summarizing.
func (m *Machine) SelectRankedOption(optionID string) (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionSelectRankedOption
	detail := logging.Detail{OptionID: optionID}
	if err := m.require(action, detail, session.PhaseAdapting); err != nil {
		return Feedback{}, err
	}
	if len(m.state.RankedOptions) == 0 {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("no ranking submitted: %w", ErrInvalidPhase))
	}
	opt, ok := findOption(m.state.RankedOptions, optionID)
	if !ok {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("select ranked %q: %w", optionID, ErrUnknownOption))
	}
	now := m.now()
	m.state.Selected = &opt
	m.state.ValueChangeType = session.ChangeAPACommit
	m.state.TimeSpent.APA = &now
	m.state.Message = ""
	return m.moveTo(action, session.PhaseSummarizing, detail), nil
}

// #endregion adapting

// #region summarizing
// ConfirmDecision applies the chosen impact, appends the outcome, and returns the
// transition to apply. Rejected with guidance until alternatives were explored.
func (m *Machine) ConfirmDecision() (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionConfirmDecision
	if err := m.require(action, logging.Detail{}, session.PhaseSummarizing); err != nil {
		return Feedback{}, err
	}
	chosen := *m.state.Selected
	detail := logging.Detail{OptionID: chosen.ID}
	if !m.state.HasExploredAlts {
		return m.reject(action, MsgExploreFirst, detail), nil
	}

	res := metrics.Apply(m.sim, chosen.Impact)
	if err := m.prefs.AppendOutcome(store.Outcome{ScenarioID: m.scenario.ID, Decision: chosen}); err != nil {
		return Feedback{}, m.fail(action, detail, fmt.Errorf("confirm decision: %w", err))
	}
	last := m.index == m.catalog.Count()-1
	if last {
		if err := m.prefs.SetFinalMetrics(res.Next); err != nil {
			return Feedback{}, m.fail(action, detail, fmt.Errorf("seal final metrics: %w", err))
		}
	}

	now := m.now()
	m.sim = res.Next
	m.changed = res.Changed
	m.state.TimeSpent.Confirmed = &now
	m.generation++
	tr := Transition{Kind: TransitionAdvance, Generation: m.generation, NextIndex: m.index + 1}
	m.state.Message = MsgAdvancing
	if last {
		tr.Kind = TransitionComplete
		m.done = true
		m.state.Message = MsgComplete
	}
	m.pending = &tr
	if m.telemetry != nil {
		m.telemetry.DecisionConfirmed(last)
	}

	fb := m.moveTo(action, session.PhaseConfirmed, detail)
	fb.Transition = &tr
	return fb, nil
}

// #endregion summarizing

// #region advance
// Advance applies a transition returned by ConfirmDecision. Transitions from an
// earlier generation, already applied, or arriving after Close are ignored and
// reported as false.
func (m *Machine) Advance(tr Transition) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.pending == nil || m.pending.Generation != tr.Generation {
		m.log.Debug("ignoring stale transition", "generation", tr.Generation)
		return false, nil
	}
	m.pending = nil
	if tr.Kind == TransitionComplete {
		m.record(ActionAdvance, session.PhaseConfirmed, session.PhaseConfirmed, true, logging.Detail{Reason: "session complete"})
		return true, nil
	}
	if err := m.enterScenario(tr.NextIndex); err != nil {
		return false, err
	}
	return true, nil
}

// ResetScenario restarts the current scenario instance. Confirmed outcomes and
// accumulated metrics are kept; the initial pair is not re-selected.
func (m *Machine) ResetScenario() (Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	const action = ActionReset
	if err := m.require(action, logging.Detail{},
		session.PhaseReviewing, session.PhaseJustifying, session.PhaseReflecting,
		session.PhaseAdapting, session.PhaseSummarizing); err != nil {
		return Feedback{}, err
	}
	from := m.state.Phase
	m.state = session.NewState(m.newID(), m.now())
	if err := m.prefs.SetHasReorderedValues(false); err != nil {
		m.log.Warn("clear reorder flag failed", "err", err)
	}
	m.record(action, from, session.PhaseReviewing, true, logging.Detail{})
	m.countTransition(from, session.PhaseReviewing)
	return Feedback{Accepted: true, Phase: session.PhaseReviewing}, nil
}

func (m *Machine) enterScenario(index int) error {
	sc, err := m.catalog.Get(index)
	if err != nil {
		return fmt.Errorf("enter scenario %d: %w", index, err)
	}
	sel := m.selector.SelectInitial(sc, index)
	from := m.state.Phase

	m.index = index
	m.scenario = sc
	m.initial = sel.Options
	m.tier = sel.Tier
	m.changed = nil
	m.state = session.NewState(m.newID(), m.now())
	if err := m.prefs.SetHasReorderedValues(false); err != nil {
		m.log.Warn("clear reorder flag failed", "err", err)
	}

	m.log.Info("scenario entered", "scenario", sc.ID, "index", index, "tier", sel.Tier)
	m.record(ActionEnterScenario, from, session.PhaseReviewing, true, logging.Detail{
		Tier:  string(sel.Tier),
		Order: optionIDs(sel.Options),
	})
	return nil
}

// #endregion advance

// #region helpers
func (m *Machine) visible() []catalog.DecisionOption {
	out := make([]catalog.DecisionOption, 0, len(m.initial)+len(m.state.Added))
	out = append(out, m.initial...)
	return append(out, m.state.Added...)
}

// require checks the machine is usable and in one of the allowed phases.
func (m *Machine) require(action string, detail logging.Detail, allowed ...session.Phase) error {
	if m.closed {
		return ErrClosed
	}
	if m.done {
		return m.fail(action, detail, fmt.Errorf("%s: %w", action, ErrSessionComplete))
	}
	for _, p := range allowed {
		if m.state.Phase == p {
			return nil
		}
	}
	return m.fail(action, detail, fmt.Errorf("%s in %s: %w", action, m.state.Phase, ErrInvalidPhase))
}

// moveTo records an accepted action and sets the new phase.
func (m *Machine) moveTo(action string, to session.Phase, detail logging.Detail) Feedback {
	from := m.state.Phase
	m.state.Phase = to
	m.record(action, from, to, true, detail)
	m.countTransition(from, to)
	return Feedback{Accepted: true, Phase: to, Message: m.state.Message}
}

// reject records a guard rejection. The state is left unchanged.
func (m *Machine) reject(action, message string, detail logging.Detail) Feedback {
	detail.Message = message
	m.record(action, m.state.Phase, m.state.Phase, false, detail)
	if m.telemetry != nil {
		m.telemetry.Rejected(action)
	}
	m.log.Info("action rejected", "action", action, "phase", m.state.Phase, "message", message)
	return Feedback{Accepted: false, Message: message, Phase: m.state.Phase}
}

// fail records an action that returned an error and passes the error through.
func (m *Machine) fail(action string, detail logging.Detail, err error) error {
	detail.Reason = err.Error()
	m.record(action, m.state.Phase, m.state.Phase, false, detail)
	if m.telemetry != nil {
		m.telemetry.Rejected(action)
	}
	return err
}

func (m *Machine) record(action string, from, to session.Phase, accepted bool, detail logging.Detail) {
	if m.recorder == nil {
		return
	}
	m.recorder.Record(logging.TransitionEntry{
		InstanceID: m.state.ScenarioInstanceID,
		ScenarioID: m.scenario.ID,
		Action:     action,
		FromPhase:  string(from),
		ToPhase:    string(to),
		Accepted:   accepted,
		DetailJSON: logging.EncodeDetail(detail),
		CreatedAt:  m.now().UTC(),
	})
}

func (m *Machine) countTransition(from, to session.Phase) {
	if m.telemetry != nil {
		m.telemetry.Transition(string(from), string(to))
	}
}

func findOption(opts []catalog.DecisionOption, id string) (catalog.DecisionOption, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return catalog.DecisionOption{}, false
}

func optionIDs(opts []catalog.DecisionOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.ID
	}
	return out
}

func itemIDs(items []store.RankItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// #endregion helpers
