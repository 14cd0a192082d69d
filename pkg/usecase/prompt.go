package usecase

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/lectio-dev/lectio/pkg/agent/tool/search"
	"github.com/lectio-dev/lectio/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/regular_system.md
var regularSystemPrompt string

//go:embed prompt/regular_user.md
var regularUserPromptTmpl string

//go:embed prompt/agent_system.md
var agentSystemPromptTmpl string

//go:embed prompt/agent_user.md
var agentUserPromptTmpl string

var (
	regularUserPrompt = template.Must(template.New("regular_user").Parse(regularUserPromptTmpl))
	agentUserPrompt   = template.Must(template.New("agent_user").Parse(agentUserPromptTmpl))
)

// DefaultNoSourcesAnswer is returned by the regular pipeline when retrieval finds nothing
const DefaultNoSourcesAnswer = "I couldn't find any relevant passages in the Christian Classics Ethereal Library for this question. Please try rephrasing it or asking about a different topic."

// Prompts holds the texts that operators may override from the config file.
// Empty fields fall back to the embedded defaults.
type Prompts struct {
	RegularSystem string
	AgentSystem   string
	NoSources     string
}

// DefaultPrompts returns the embedded prompt texts
func DefaultPrompts() Prompts {
	return Prompts{
		RegularSystem: regularSystemPrompt,
		AgentSystem:   agentSystemPromptTmpl,
		NoSources:     DefaultNoSourcesAnswer,
	}
}

func (p Prompts) merge(override Prompts) Prompts {
	if strings.TrimSpace(override.RegularSystem) != "" {
		p.RegularSystem = override.RegularSystem
	}
	if strings.TrimSpace(override.AgentSystem) != "" {
		p.AgentSystem = override.AgentSystem
	}
	if strings.TrimSpace(override.NoSources) != "" {
		p.NoSources = override.NoSources
	}
	return p
}

// Validate checks that the agent system prompt is a valid template
func (p Prompts) Validate() error {
	if _, err := template.New("agent_system").Parse(p.AgentSystem); err != nil {
		return goerr.Wrap(err, "invalid agent system prompt template")
	}
	return nil
}

type regularPromptData struct {
	Query   string
	Records []*model.Record
	History []model.Turn
}

func buildRegularPrompt(system, query string, records []*model.Record, history []model.Turn) (*model.Prompt, error) {
	var buf bytes.Buffer
	if err := regularUserPrompt.Execute(&buf, regularPromptData{
		Query:   query,
		Records: records,
		History: history,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to render regular prompt")
	}
	return &model.Prompt{System: system, User: buf.String()}, nil
}

type agentSystemPromptData struct {
	ToolName     string
	MaxToolCalls int
}

func buildAgentSystemPrompt(tmpl string, maxToolCalls int) (string, error) {
	t, err := template.New("agent_system").Parse(tmpl)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse agent system prompt")
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, agentSystemPromptData{
		ToolName:     search.ToolName,
		MaxToolCalls: maxToolCalls,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render agent system prompt")
	}
	return buf.String(), nil
}

type agentUserPromptData struct {
	Query   string
	History []model.Turn
}

func buildAgentUserPrompt(query string, history []model.Turn) (string, error) {
	var buf bytes.Buffer
	if err := agentUserPrompt.Execute(&buf, agentUserPromptData{
		Query:   query,
		History: history,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render agent user prompt")
	}
	return buf.String(), nil
}
