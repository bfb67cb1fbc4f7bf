package agent

import (
	"fmt"

	"github.com/hupe1980/sherpa/internal/util"
)

// DefaultLanguage is the response language personas are instructed to use.
const DefaultLanguage = "Korean"

// PromptData is the value persona templates are rendered with.
type PromptData struct {
	Language string
	AgentID  string
	Name     string
}

// Instruction renders the persona system instruction for d.
func (d Descriptor) Instruction(data PromptData) (string, error) {
	if data.Language == "" {
		data.Language = DefaultLanguage
	}

	if data.AgentID == "" {
		data.AgentID = string(d.ID)
	}

	if data.Name == "" {
		data.Name = d.Name
	}

	text, err := util.RenderTemplate(d.PromptTemplate, map[string]any{
		"Language": data.Language,
		"AgentID":  data.AgentID,
		"Name":     data.Name,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt for %s: %w", d.ID, err)
	}

	return text, nil
}
