package stages

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/prompts"
)

// Model is the language-model collaborator a stage talks to.
type Model interface {
	Chat(ctx context.Context, prompt string) (string, error)
	Vision(ctx context.Context, prompt string, images []string) (string, error)
}

// Models resolves the model a stage should use.
type Models interface {
	For(stage prompts.Stage) (Model, error)
}

// AgentModels creates go-agents agents from the configured base agent and
// any per-stage overrides.
type AgentModels struct {
	cfg *config.Config
}

// NewAgentModels creates AgentModels over a finalized configuration.
func NewAgentModels(cfg *config.Config) *AgentModels {
	return &AgentModels{cfg: cfg}
}

// For creates an agent for stage.
func (m *AgentModels) For(stage prompts.Stage) (Model, error) {
	ac := m.cfg.AgentFor(string(stage))

	a, err := agent.New(&ac)
	if err != nil {
		return nil, fmt.Errorf("create agent for %s: %w", stage, err)
	}

	return &agentModel{agent: a}, nil
}

type agentModel struct {
	agent agent.Agent
}

func (m *agentModel) Chat(ctx context.Context, prompt string) (string, error) {
	resp, err := m.agent.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

func (m *agentModel) Vision(ctx context.Context, prompt string, images []string) (string, error) {
	resp, err := m.agent.Vision(ctx, prompt, images)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}
