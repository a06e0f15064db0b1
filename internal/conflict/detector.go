package conflict

import (
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/session"
)

// #region check-result
// CheckResult is the outcome of a reflection check, with the reason for logging.
type CheckResult struct {
	Trigger bool
	Reason  string
}

// #endregion check-result

// #region should-trigger
// ShouldTriggerReflection reports whether a kept choice contradicts the
// participant's stable values and must go through the contradiction question.
func ShouldTriggerReflection(chosen catalog.DecisionOption, stable []catalog.Value, st session.State) bool {
	return Check(chosen, stable, st).Trigger
}

// Check evaluates the three conditions in order and names the first one that fails.
func Check(chosen catalog.DecisionOption, stable []catalog.Value, st session.State) CheckResult {
	if st.Locked() {
		return CheckResult{Reason: "path locked to adaptive ranking"}
	}
	if containsValue(stable, chosen.Label) {
		return CheckResult{Reason: "label " + string(chosen.Label) + " is a stable value"}
	}
	if !chosen.HasCVRQuestion() {
		return CheckResult{Reason: "option has no contradiction question"}
	}
	return CheckResult{
		Trigger: true,
		Reason:  "label " + string(chosen.Label) + " outside stable values",
	}
}

// #endregion should-trigger

// #region helpers
func containsValue(set []catalog.Value, v catalog.Value) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// #endregion helpers
