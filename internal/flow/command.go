package flow

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/store"
)

// ErrBadCommand wraps malformed commands: unknown action, missing answer, unknown basis.
var ErrBadCommand = errors.New("bad command")

// #region command
// Command is one participant action in wire form, shared by replay fixtures,
// the gRPC transport and the stdin controller.
type Command struct {
	Action   string
	OptionID string
	Answer   *bool
	Basis    string
	Order    []string
}

// RankItems converts the command order into rank items.
func (c Command) RankItems() []store.RankItem {
	items := make([]store.RankItem, len(c.Order))
	for i, id := range c.Order {
		items[i] = store.RankItem{ID: id}
	}
	return items
}

// Dispatch applies cmd to the machine. An advance command consumes the pending
// transition, if any; without one it is reported as not accepted.
func (m *Machine) Dispatch(cmd Command) (Feedback, error) {
	switch cmd.Action {
	case ActionSelectOption:
		return m.SelectOption(cmd.OptionID)
	case ActionRequestAlternatives:
		return m.RequestAlternatives()
	case ActionAddAlternative:
		return m.AddAlternative(cmd.OptionID)
	case ActionConfirmKeepChoice:
		return m.ConfirmKeepChoice()
	case ActionReviewAlternatives:
		return m.ReviewAlternatives()
	case ActionAnswerReflection:
		if cmd.Answer == nil {
			return Feedback{}, fmt.Errorf("%w: answer_reflection without answer", ErrBadCommand)
		}
		return m.AnswerReflection(*cmd.Answer)
	case ActionSubmitRanking:
		basis, ok := store.ParseBasis(cmd.Basis)
		if !ok {
			return Feedback{}, fmt.Errorf("%w: unknown basis %q", ErrBadCommand, cmd.Basis)
		}
		return m.SubmitRanking(basis, cmd.RankItems())
	case ActionSelectRankedOption:
		return m.SelectRankedOption(cmd.OptionID)
	case ActionConfirmDecision:
		return m.ConfirmDecision()
	case ActionReset:
		return m.ResetScenario()
	case ActionAdvance:
		tr, ok := m.Pending()
		if !ok {
			return Feedback{Message: "no pending transition", Phase: m.State().Phase}, nil
		}
		applied, err := m.Advance(tr)
		return Feedback{Accepted: applied, Phase: m.State().Phase}, err
	}
	return Feedback{}, fmt.Errorf("%w: unknown action %q", ErrBadCommand, cmd.Action)
}

// #endregion command
