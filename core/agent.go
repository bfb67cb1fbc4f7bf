package core

// AgentID is the internal identifier of an agent persona.
type AgentID string

// Known agent identifiers.
const (
	AgentCofounder         AgentID = "cofounder"
	AgentVCSimulator       AgentID = "vc_simulator"
	AgentGrantHunter       AgentID = "grant_hunter"
	AgentMarketSensor      AgentID = "market_sensor"
	AgentMVPBuilder        AgentID = "mvp_builder"
	AgentFrameworkDesigner AgentID = "framework_designer"
	AgentGrowthHacker      AgentID = "growth_hacker"
	AgentLegalAdvisor      AgentID = "legal_advisor"

	// Finish is the routing outcome meaning "no agent should run".
	Finish AgentID = "FINISH"
)

// String returns the identifier as plain string.
func (id AgentID) String() string { return string(id) }

// IsFinish reports whether id is the terminal routing outcome.
func (id AgentID) IsFinish() bool { return id == Finish }

// RoutingSource records which path produced a RoutingDecision.
type RoutingSource string

const (
	// RoutingSourceClassifier means the structured classification call decided.
	RoutingSourceClassifier RoutingSource = "classifier"
	// RoutingSourceFallback means the keyword fallback decided.
	RoutingSourceFallback RoutingSource = "fallback"
	// RoutingSourceNone means routing was skipped (no fresh user turn).
	RoutingSourceNone RoutingSource = "none"
)

// RoutingDecision is the ephemeral outcome of a single routing call.
type RoutingDecision struct {
	AgentID AgentID       `json:"agent_id"`
	Source  RoutingSource `json:"source"`
}

// IsFinish reports whether the decision requests no further work.
func (d RoutingDecision) IsFinish() bool { return d.AgentID.IsFinish() }

// AgentResult is the output of a single agent execution.
type AgentResult struct {
	AgentID AgentID `json:"agent"`
	Content string  `json:"response"`
}

// Message converts the result into the agent message appended to a thread.
func (r AgentResult) Message() Message {
	return NewAgentMessage(r.AgentID, r.Content)
}
