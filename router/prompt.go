package router

import (
	"fmt"
	"strings"

	"github.com/hupe1980/sherpa/agent"
	"github.com/hupe1980/sherpa/core"
	"github.com/hupe1980/sherpa/internal/util"
)

const supervisorPrompt = `You are the supervisor (마스터) managing a conversation between worker agents: {{.Members}}.

Given the user request, you MUST route to the appropriate agent. Only respond with 'FINISH' if the task is truly complete or if you need to wait for more user input.

Available agents and their purposes:
{{range .Agents}}- {{.Label}}: {{.Description}}
{{end}}
Current user request: {{.Request}}
{{if .Recent}}
Recent conversation:
{{range .Recent}}{{.}}
{{end}}{{end}}
CRITICAL ROUTING RULES - Analyze the user's request and route to the MOST APPROPRIATE agent:
{{range $i, $r := .Rules}}{{inc $i}}. If the user asks about {{$r.Topics}} → {{$r.Label}}
{{end}}
You MUST respond with ONLY the agent name (e.g., "{{.Example}}") or "FINISH" if the conversation is complete.

Determine which agent should handle this request NOW and respond with that agent's name.`

type promptRule struct {
	Label  string
	Topics string
}

// buildPrompt renders the classification prompt for the latest user message.
func (s *Supervisor) buildPrompt(userMessage string, thread *core.Thread) (string, error) {
	descs := s.registry.Descriptors()

	agents := make([]map[string]string, 0, len(descs))
	for _, d := range descs {
		agents = append(agents, map[string]string{"Label": d.Label, "Description": d.Description})
	}

	rules := make([]promptRule, 0, len(s.keywords.groups))
	for _, g := range s.keywords.groups {
		d, err := s.registry.Get(g.AgentID)
		if err != nil {
			continue
		}
		rules = append(rules, promptRule{Label: d.Label, Topics: strings.Join(g.Keywords, ", ")})
	}

	example := ""
	if len(descs) > 0 {
		example = descs[0].Label
	}

	return util.RenderTemplate(supervisorPrompt, map[string]any{
		"Members": strings.Join(s.registry.Labels(), ", "),
		"Agents":  agents,
		"Request": userMessage,
		"Recent":  recentContext(thread, s.contextMessages),
		"Rules":   rules,
		"Example": example,
	})
}

// recentContext renders up to n trailing messages as "User: …" / "Assistant: …"
// lines. A single-message thread has no context beyond the request itself.
func recentContext(thread *core.Thread, n int) []string {
	if thread.Len() <= 1 || n <= 0 {
		return nil
	}

	recent := thread.Recent(n)
	lines := make([]string, 0, len(recent))

	for _, m := range recent {
		switch {
		case m.IsUser():
			lines = append(lines, fmt.Sprintf("User: %s", m.Content))
		case m.IsAgent():
			lines = append(lines, fmt.Sprintf("Assistant: %s", m.Content))
		}
	}

	return lines
}

// routingSchema constrains the classifier to the registered labels or FINISH.
func routingSchema(reg *agent.Registry) map[string]any {
	labels := append(reg.Labels(), string(core.Finish))

	enum := make([]any, len(labels))
	for i, l := range labels {
		enum[i] = l
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"next": map[string]any{
				"type":        "string",
				"enum":        enum,
				"description": "The name of the next agent to execute, or 'FINISH' if the task is complete",
			},
		},
		"required":             []string{"next"},
		"additionalProperties": false,
	}
}
