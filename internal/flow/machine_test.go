package flow

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/metrics"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/ranking"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/selector"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/session"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// #region helpers
type memRecorder struct {
	mu      sync.Mutex
	entries []logging.TransitionEntry
}

func (r *memRecorder) Record(e logging.TransitionEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *memRecorder) last() logging.TransitionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

type harness struct {
	m     *Machine
	prefs *store.Store
	rec   *memRecorder
}

func newHarness(t *testing.T, seed func(*store.Store)) harness {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	prefs := store.New(store.NewMemoryRepository(), nil)
	if seed != nil {
		seed(prefs)
	}
	rec := &memRecorder{}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	m, err := New(Deps{
		Catalog:  cat,
		Prefs:    prefs,
		Selector: selector.NewSelector(prefs, rand.New(rand.NewPCG(1, 2)), nil),
		Ranker:   ranking.New(prefs, nil, nil),
		Recorder: rec,
		Clock: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			n++
			return fmt.Sprintf("inst-%d", n)
		},
	})
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return harness{m: m, prefs: prefs, rec: rec}
}

// stableSafetySustainability makes both scenario-1 defaults stable, so no reflection fires.
func stableSafetySustainability(p *store.Store) {
	p.SetFinalValues([]store.NamedValue{{Name: "Safety"}, {Name: "Sustainability"}})
}

// stableFairnessEfficiency makes the scenario-1 defaults contradict the stable set.
func stableFairnessEfficiency(p *store.Store) {
	p.SetFinalValues([]store.NamedValue{{Name: "Fairness"}, {Name: "Efficiency"}})
}

// mustAccept returns a checker for an action result, so calls read
// mustAccept(t)(h.m.SelectOption(id)).
func mustAccept(t *testing.T) func(Feedback, error) Feedback {
	return func(fb Feedback, err error) Feedback {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fb.Accepted {
			t.Fatalf("expected accepted, got rejected: %s", fb.Message)
		}
		return fb
	}
}

func expectPhase(t *testing.T, m *Machine, want session.Phase) {
	t.Helper()
	if got := m.State().Phase; got != want {
		t.Fatalf("expected phase %s, got %s", want, got)
	}
}

// toSummary drives scenario-1 to Summarizing with deploy-firefighters after
// exploring alternatives.
func toSummary(t *testing.T, h harness) {
	t.Helper()
	mustAccept(t)(h.m.RequestAlternatives())
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	expectPhase(t, h.m, session.PhaseSummarizing)
}

// #endregion helpers

// #region initial
func TestNewStartsReviewingFirstScenario(t *testing.T) {
	h := newHarness(t, nil)
	sc, idx := h.m.Scenario()
	if sc.ID != "scenario-1" || idx != 0 {
		t.Fatalf("expected scenario-1 at 0, got %s at %d", sc.ID, idx)
	}
	expectPhase(t, h.m, session.PhaseReviewing)
	if h.m.Tier() != selector.TierFirstScenario {
		t.Fatalf("expected first_scenario tier, got %s", h.m.Tier())
	}
	opts := h.m.CurrentOptions()
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d", len(opts))
	}
	for _, o := range opts {
		if o.ID != "s1-deploy-firefighters" && o.ID != "s1-controlled-burn" {
			t.Fatalf("unexpected initial option %s", o.ID)
		}
	}
	if id := h.m.State().ScenarioInstanceID; id != "inst-1" {
		t.Fatalf("expected inst-1, got %s", id)
	}
	if m, _ := h.m.Metrics(); m != metrics.Default() {
		t.Fatalf("expected default metrics, got %+v", m)
	}
}

func TestNewRequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatal("expected error for missing deps")
	}
}

// #endregion initial

// #region reviewing-tests
func TestSelectUnknownOption(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.m.SelectOption("s1-aerial-drops")
	if !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption for hidden alternative, got %v", err)
	}
	if h.rec.last().Accepted {
		t.Fatal("expected failed action to be recorded as not accepted")
	}
}

func TestActionInWrongPhase(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.m.ConfirmKeepChoice(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
	if _, err := h.m.ConfirmDecision(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
	expectPhase(t, h.m, session.PhaseReviewing)
}

func TestAddAlternativeRequiresOpenPanel(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.m.AddAlternative("s1-aerial-drops"); !errors.Is(err, ErrAlternativesClosed) {
		t.Fatalf("expected ErrAlternativesClosed, got %v", err)
	}

	mustAccept(t)(h.m.RequestAlternatives())
	if !h.m.State().HasExploredAlts {
		t.Fatal("expected HasExploredAlts after requesting alternatives")
	}
	alts := h.m.AlternativeOptions()
	if len(alts) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(alts))
	}
	again := h.m.AlternativeOptions()
	if len(again) != len(alts) || again[0].ID != alts[0].ID || again[1].ID != alts[1].ID {
		t.Fatal("alternative options not idempotent")
	}

	mustAccept(t)(h.m.AddAlternative("s1-aerial-drops"))
	if got := len(h.m.CurrentOptions()); got != 3 {
		t.Fatalf("expected 3 visible options, got %d", got)
	}
	alts = h.m.AlternativeOptions()
	if len(alts) != 1 || alts[0].ID != "s1-evacuate-vulnerable" {
		t.Fatalf("expected only evacuate-vulnerable left, got %+v", alts)
	}
	if _, err := h.m.AddAlternative("s1-aerial-drops"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption for already added, got %v", err)
	}

	mustAccept(t)(h.m.SelectOption("s1-aerial-drops"))
	if sel := h.m.State().Selected; sel == nil || !sel.Alternative {
		t.Fatal("expected added alternative to be selectable and tagged")
	}
}

// #endregion reviewing-tests

// #region summarizing-tests
func TestConfirmWithoutExploringIsNoop(t *testing.T) {
	h := newHarness(t, stableSafetySustainability)
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	expectPhase(t, h.m, session.PhaseSummarizing)

	fb, err := h.m.ConfirmDecision()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.Accepted || fb.Message != MsgExploreFirst {
		t.Fatalf("expected guidance rejection, got %+v", fb)
	}
	if m, changed := h.m.Metrics(); m != metrics.Default() || len(changed) != 0 {
		t.Fatalf("metrics mutated by rejected confirm: %+v", m)
	}
	if len(h.prefs.Outcomes()) != 0 {
		t.Fatal("outcome appended by rejected confirm")
	}
	expectPhase(t, h.m, session.PhaseSummarizing)
}

func TestReviewAlternativesFromSummaryUnblocksConfirm(t *testing.T) {
	h := newHarness(t, stableSafetySustainability)
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())

	mustAccept(t)(h.m.ReviewAlternatives())
	st := h.m.State()
	if st.Phase != session.PhaseReviewing || st.Selected != nil || !st.HasExploredAlts || !st.AlternativesOpen {
		t.Fatalf("unexpected state after review alternatives: %+v", st)
	}

	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	fb := mustAccept(t)(h.m.ConfirmDecision())
	if fb.Transition == nil || fb.Transition.Kind != TransitionAdvance || fb.Transition.NextIndex != 1 {
		t.Fatalf("expected advance transition to 1, got %+v", fb.Transition)
	}
}

func TestConfirmAppliesImpactAndAppendsOutcome(t *testing.T) {
	h := newHarness(t, stableSafetySustainability)
	toSummary(t, h)
	mustAccept(t)(h.m.ConfirmDecision())

	got, changed := h.m.Metrics()
	want := metrics.Simulation{
		LivesSaved: 300, HumanCasualties: 3, FirefightingResource: 70,
		InfrastructureCondition: 90, BiodiversityCondition: 85,
		PropertiesCondition: 90, NuclearPowerStation: 100,
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if len(changed) != 6 {
		t.Fatalf("expected 6 changed fields, got %v", changed)
	}
	outcomes := h.prefs.Outcomes()
	if len(outcomes) != 1 || outcomes[0].ScenarioID != "scenario-1" || outcomes[0].Decision.ID != "s1-deploy-firefighters" {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	st := h.m.State()
	if st.Phase != session.PhaseConfirmed || st.TimeSpent.Confirmed == nil {
		t.Fatalf("expected confirmed with timestamp, got %+v", st)
	}
	if _, ok := h.prefs.FinalMetrics(); ok {
		t.Fatal("final metrics sealed before the last scenario")
	}
}

// #endregion summarizing-tests

// #region reflecting-tests
func TestReflectionYesPromotesValue(t *testing.T) {
	h := newHarness(t, stableFairnessEfficiency)
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	fb := mustAccept(t)(h.m.ConfirmKeepChoice())
	if fb.Phase != session.PhaseReflecting {
		t.Fatalf("expected reflecting, got %s", fb.Phase)
	}
	st := h.m.State()
	if !st.EnteredCVR || st.Message == "" {
		t.Fatalf("expected CVR entered with reflection question, got %+v", st)
	}

	mustAccept(t)(h.m.AnswerReflection(true))
	st = h.m.State()
	if st.Phase != session.PhaseSummarizing || st.PathLock != session.LockCVR || st.ValueChangeType != session.ChangeCVRCommit {
		t.Fatalf("unexpected state after yes: %+v", st)
	}
	if st.TimeSpent.CVR == nil {
		t.Fatal("expected cvr timestamp")
	}
	ranking, ok := h.prefs.ValueRanking()
	if !ok || ranking[0].ID != string(catalog.ValueSafety) || len(ranking) != 5 {
		t.Fatalf("expected safety promoted in full ranking, got %+v", ranking)
	}
	if _, ok := h.prefs.PreferenceBasis(); ok {
		t.Fatal("promotion must not set the basis flag")
	}
}

func TestReflectionNoLocksToAdaptivePath(t *testing.T) {
	h := newHarness(t, stableFairnessEfficiency)
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	mustAccept(t)(h.m.AnswerReflection(false))

	st := h.m.State()
	if st.Phase != session.PhaseAdapting || st.PathLock != session.LockAPA || !st.EnteredAPA {
		t.Fatalf("unexpected state after no: %+v", st)
	}

	for _, answer := range []bool{true, false, true} {
		fb, err := h.m.AnswerReflection(answer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fb.Accepted || fb.Message != MsgPathLocked {
			t.Fatalf("expected path locked rejection, got %+v", fb)
		}
		if got := h.m.State(); got.PathLock != session.LockAPA || got.Phase != session.PhaseAdapting {
			t.Fatalf("path lock changed: %+v", got)
		}
	}
}

func TestLockedInstanceSkipsReflectionOnReselect(t *testing.T) {
	h := newHarness(t, stableFairnessEfficiency)
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	mustAccept(t)(h.m.AnswerReflection(false))
	mustAccept(t)(h.m.SubmitRanking(store.BasisValues, ranking.DefaultItems(store.BasisValues)))
	mustAccept(t)(h.m.SelectRankedOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ReviewAlternatives())
	if st := h.m.State(); st.ValueChangeType != session.ChangeNone || st.PathLock != session.LockAPA {
		t.Fatalf("expected discarded ranked pick to clear the change type but keep the lock, got %+v", st)
	}

	mustAccept(t)(h.m.SelectOption("s1-controlled-burn"))
	fb := mustAccept(t)(h.m.ConfirmKeepChoice())
	if fb.Phase != session.PhaseSummarizing {
		t.Fatalf("locked instance must not re-enter reflecting, got %s", fb.Phase)
	}
}

// #endregion reflecting-tests

// #region adapting-tests
func TestAdaptivePathRanksAndCommits(t *testing.T) {
	h := newHarness(t, stableFairnessEfficiency)
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	mustAccept(t)(h.m.AnswerReflection(false))

	if _, err := h.m.SelectRankedOption("s1-controlled-burn"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase before ranking, got %v", err)
	}
	if _, err := h.m.SubmitRanking(store.BasisValues, ranking.DefaultItems(store.BasisValues)[:3]); !errors.Is(err, ranking.ErrIncompleteRanking) {
		t.Fatalf("expected ErrIncompleteRanking, got %v", err)
	}

	order := []store.RankItem{
		{ID: "sustainability"}, {ID: "safety"}, {ID: "fairness"}, {ID: "efficiency"}, {ID: "nonmaleficence"},
	}
	mustAccept(t)(h.m.SubmitRanking(store.BasisValues, order))
	st := h.m.State()
	if len(st.RankedOptions) != 2 || st.RankedOptions[0].ID != "s1-controlled-burn" {
		t.Fatalf("expected controlled burn ranked first, got %+v", st.RankedOptions)
	}
	if !h.prefs.RankedViewAccessed() || !h.m.ValuesReordered() {
		t.Fatal("expected ranked view and reorder flags written")
	}
	if b, _ := h.prefs.PreferenceBasis(); b != store.BasisValues {
		t.Fatalf("expected values basis, got %q", b)
	}

	if _, err := h.m.SelectRankedOption("s1-aerial-drops"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
	mustAccept(t)(h.m.SelectRankedOption("s1-controlled-burn"))
	st = h.m.State()
	if st.Phase != session.PhaseSummarizing || st.ValueChangeType != session.ChangeAPACommit || st.TimeSpent.APA == nil {
		t.Fatalf("unexpected state after ranked select: %+v", st)
	}
	if st.Selected.ID != "s1-controlled-burn" {
		t.Fatalf("expected controlled burn selected, got %s", st.Selected.ID)
	}
}

// #endregion adapting-tests

// #region advance-tests
func TestAdvanceMovesToNextScenarioWithRanking(t *testing.T) {
	h := newHarness(t, stableFairnessEfficiency)
	mustAccept(t)(h.m.RequestAlternatives())
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	mustAccept(t)(h.m.AnswerReflection(false))
	order := ranking.DefaultItems(store.BasisValues)
	order[0], order[4] = order[4], order[0] // nonmaleficence first
	mustAccept(t)(h.m.SubmitRanking(store.BasisValues, order))
	mustAccept(t)(h.m.SelectRankedOption(h.m.State().RankedOptions[0].ID))
	fb := mustAccept(t)(h.m.ConfirmDecision())

	applied, err := h.m.Advance(*fb.Transition)
	if err != nil || !applied {
		t.Fatalf("expected advance applied, got %v %v", applied, err)
	}
	sc, idx := h.m.Scenario()
	if sc.ID != "scenario-2" || idx != 1 {
		t.Fatalf("expected scenario-2, got %s", sc.ID)
	}
	st := h.m.State()
	if st.Phase != session.PhaseReviewing || st.PathLock != session.LockNone || st.ScenarioInstanceID == "inst-1" {
		t.Fatalf("expected fresh state, got %+v", st)
	}
	if h.m.Tier() != selector.TierValueRanking {
		t.Fatalf("expected value_ranking tier, got %s", h.m.Tier())
	}
	if opts := h.m.CurrentOptions(); opts[0].ID != "s2-protect-station" {
		t.Fatalf("expected nonmaleficence option first, got %s", opts[0].ID)
	}
	if h.m.ValuesReordered() {
		t.Fatal("reorder flag must be cleared for the new scenario")
	}

	if applied, _ := h.m.Advance(*fb.Transition); applied {
		t.Fatal("replayed transition must be ignored")
	}
}

func TestAdvanceIgnoredAfterClose(t *testing.T) {
	h := newHarness(t, stableSafetySustainability)
	toSummary(t, h)
	fb := mustAccept(t)(h.m.ConfirmDecision())
	h.m.Close()

	if applied, _ := h.m.Advance(*fb.Transition); applied {
		t.Fatal("transition applied after close")
	}
	if _, err := h.m.SelectOption("s1-deploy-firefighters"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestFullSessionSealsMetrics(t *testing.T) {
	h := newHarness(t, func(p *store.Store) {
		p.SetFinalValues([]store.NamedValue{
			{Name: "Safety"}, {Name: "Sustainability"},
		})
	})

	for i := 0; i < 3; i++ {
		mustAccept(t)(h.m.RequestAlternatives())
		opt := h.m.CurrentOptions()[0]
		mustAccept(t)(h.m.SelectOption(opt.ID))
		fb := mustAccept(t)(h.m.ConfirmKeepChoice())
		if fb.Phase == session.PhaseReflecting {
			mustAccept(t)(h.m.AnswerReflection(true))
		}
		fb = mustAccept(t)(h.m.ConfirmDecision())
		if i < 2 {
			if fb.Transition.Kind != TransitionAdvance {
				t.Fatalf("scenario %d: expected advance, got %s", i, fb.Transition.Kind)
			}
			if _, ok := h.prefs.FinalMetrics(); ok {
				t.Fatalf("scenario %d: metrics sealed early", i)
			}
		} else if fb.Transition.Kind != TransitionComplete {
			t.Fatalf("expected complete on last scenario, got %s", fb.Transition.Kind)
		}
		if _, err := h.m.Advance(*fb.Transition); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if !h.m.Done() {
		t.Fatal("expected session done")
	}
	final, ok := h.prefs.FinalMetrics()
	current, _ := h.m.Metrics()
	if !ok || final != current {
		t.Fatalf("expected sealed metrics %+v, got %+v", current, final)
	}
	if n := len(h.prefs.Outcomes()); n != 3 {
		t.Fatalf("expected 3 outcomes, got %d", n)
	}
	if _, err := h.m.RequestAlternatives(); !errors.Is(err, ErrSessionComplete) {
		t.Fatalf("expected ErrSessionComplete, got %v", err)
	}
}

// #endregion advance-tests

// #region reset-tests
func TestResetClearsInstanceButKeepsHistory(t *testing.T) {
	h := newHarness(t, stableFairnessEfficiency)
	initial := h.m.CurrentOptions()
	mustAccept(t)(h.m.RequestAlternatives())
	mustAccept(t)(h.m.AddAlternative("s1-aerial-drops"))
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	mustAccept(t)(h.m.AnswerReflection(false))
	before := h.m.State().ScenarioInstanceID

	mustAccept(t)(h.m.ResetScenario())
	st := h.m.State()
	if st.Phase != session.PhaseReviewing || st.ScenarioInstanceID == before {
		t.Fatalf("expected new reviewing instance, got %+v", st)
	}
	if st.HasExploredAlts || st.EnteredCVR || st.EnteredAPA || st.PathLock != session.LockNone ||
		st.Selected != nil || len(st.Added) != 0 || st.Message != "" {
		t.Fatalf("expected cleared instance, got %+v", st)
	}
	opts := h.m.CurrentOptions()
	if len(opts) != 2 || opts[0].ID != initial[0].ID || opts[1].ID != initial[1].ID {
		t.Fatalf("initial pair must survive reset, got %+v", opts)
	}

	// The reset instance may take the reflection path again.
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	if fb := mustAccept(t)(h.m.ConfirmKeepChoice()); fb.Phase != session.PhaseReflecting {
		t.Fatalf("expected reflecting after reset, got %s", fb.Phase)
	}
}

func TestResetKeepsConfirmedOutcomes(t *testing.T) {
	h := newHarness(t, stableSafetySustainability)
	toSummary(t, h)
	fb := mustAccept(t)(h.m.ConfirmDecision())

	if _, err := h.m.ResetScenario(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase in confirmed phase, got %v", err)
	}
	h.m.Advance(*fb.Transition)
	mustAccept(t)(h.m.ResetScenario())

	if n := len(h.prefs.Outcomes()); n != 1 {
		t.Fatalf("expected outcome kept, got %d", n)
	}
	if m, _ := h.m.Metrics(); m.LivesSaved != 300 {
		t.Fatalf("expected metrics kept, got %+v", m)
	}
}

// #endregion reset-tests

// #region recorder-tests
func TestRecorderSeesRejections(t *testing.T) {
	h := newHarness(t, stableSafetySustainability)
	mustAccept(t)(h.m.SelectOption("s1-deploy-firefighters"))
	mustAccept(t)(h.m.ConfirmKeepChoice())
	h.m.ConfirmDecision()

	e := h.rec.last()
	if e.Action != ActionConfirmDecision || e.Accepted || e.FromPhase != "summarizing" || e.ToPhase != "summarizing" {
		t.Fatalf("unexpected entry %+v", e)
	}
	d, err := logging.DecodeDetail(e.DetailJSON)
	if err != nil || d.Message != MsgExploreFirst {
		t.Fatalf("expected guidance in detail, got %+v (%v)", d, err)
	}

	first := h.rec.entries[0]
	if first.Action != ActionEnterScenario || first.ScenarioID != "scenario-1" {
		t.Fatalf("expected enter_scenario first, got %+v", first)
	}
}

// #endregion recorder-tests
