package transport

import (
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/catalog"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/flow"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/metrics"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/session"
)

// #region types
// ServiceName is the fully qualified gRPC service name.
const ServiceName = "crisis.v1.SessionService"

const (
	methodSnapshot = "/" + ServiceName + "/Snapshot"
	methodAct      = "/" + ServiceName + "/Act"
)

// Snapshot is the participant-facing view of the session after an action.
// It travels as a google.protobuf.Struct using the json field names.
type Snapshot struct {
	ScenarioIndex int                      `json:"scenarioIndex"`
	ScenarioID    string                   `json:"scenarioId"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	Tier          string                   `json:"tier"`
	Options       []catalog.DecisionOption `json:"options"`
	Alternatives  []catalog.DecisionOption `json:"alternatives,omitempty"` // only while the panel is open
	State         session.State            `json:"state"`
	Metrics       metrics.Simulation       `json:"metrics"`
	Changed       []catalog.Metric         `json:"changed,omitempty"`
	Reordered     bool                     `json:"valuesReordered"`
	Accepted      bool                     `json:"accepted"`
	Message       string                   `json:"message,omitempty"`
	Transition    *flow.Transition         `json:"transition,omitempty"`
	Done          bool                     `json:"done"`
}

// ActRequest is one participant action sent to the server.
type ActRequest struct {
	Action   string
	OptionID string
	Answer   *bool
	Basis    string
	Order    []string
}

// #endregion types
