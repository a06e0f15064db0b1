package replay

import (
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/flow"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/logging"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/session"
)

// #region export
// StepsFromLog rebuilds fixture steps from decision log entries. Scenario entry
// rows following a confirmation become advance steps; the first entry is implied
// by session start.
func StepsFromLog(entries []logging.TransitionEntry) ([]FixtureStep, error) {
	var steps []FixtureStep
	for _, e := range entries {
		d, err := logging.DecodeDetail(e.DetailJSON)
		if err != nil {
			return nil, err
		}
		accepted := e.Accepted
		step := FixtureStep{
			Action:         e.Action,
			ExpectPhase:    e.ToPhase,
			ExpectAccepted: &accepted,
		}
		switch e.Action {
		case flow.ActionEnterScenario:
			if e.FromPhase != string(session.PhaseConfirmed) {
				continue
			}
			step.Action = flow.ActionAdvance
		case flow.ActionSelectOption, flow.ActionAddAlternative, flow.ActionSelectRankedOption:
			step.OptionID = d.OptionID
		case flow.ActionAnswerReflection:
			step.Answer = d.Answer
		case flow.ActionSubmitRanking:
			step.Basis = d.Basis
			step.Order = d.Order
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// LatestSession returns the entries from the most recent session start onward.
// A session starts at a scenario entry that does not follow a confirmation.
func LatestSession(entries []logging.TransitionEntry) []logging.TransitionEntry {
	start := 0
	for i, e := range entries {
		if e.Action == flow.ActionEnterScenario && e.FromPhase != string(session.PhaseConfirmed) {
			start = i
		}
	}
	return entries[start:]
}

// #endregion export
