package agent

import (
	"github.com/hupe1980/sherpa/core"
)

// PostProcess selects how raw model output of a persona is finalized.
type PostProcess int

const (
	// PostProcessIdentity returns the model content unchanged.
	PostProcessIdentity PostProcess = iota
	// PostProcessDisclaimer appends the legal disclaimer when it is missing.
	PostProcessDisclaimer
	// PostProcessCanvas requests a structured business canvas instead of free text.
	PostProcessCanvas
)

// String returns the strategy name.
func (p PostProcess) String() string {
	switch p {
	case PostProcessIdentity:
		return "identity"
	case PostProcessDisclaimer:
		return "disclaimer"
	case PostProcessCanvas:
		return "canvas"
	default:
		return "unknown"
	}
}

// Descriptor is the static definition of an agent persona.
type Descriptor struct {
	// ID is the internal identifier used for dispatch and persistence.
	ID core.AgentID
	// Label is the name the routing classifier answers with.
	Label string
	// Name is a human friendly display name.
	Name string
	// Description lists the topics the persona handles. It feeds the routing catalogue.
	Description string
	// Topics are short trigger topics shown to the routing classifier.
	Topics []string
	// PromptTemplate is a text/template rendered into the system instruction.
	PromptTemplate string
	// UsesSearchTool binds the web search tool on the first model call.
	UsesSearchTool bool
	// PostProcess selects the output strategy.
	PostProcess PostProcess
}
