package config

import (
	"encoding/json"
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentProviderName = "DOCKET_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "DOCKET_AGENT_BASE_URL"
	EnvAgentToken        = "DOCKET_AGENT_TOKEN"
	EnvAgentDeployment   = "DOCKET_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "DOCKET_AGENT_API_VERSION"
	EnvAgentAuthType     = "DOCKET_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "DOCKET_AGENT_MODEL_NAME"
)

// FinalizeAgent applies the three-phase finalize pattern to a go-agents AgentConfig:
// defaults from go-agents DefaultAgentConfig, environment variable overrides, and validation.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

// AgentFor returns the agent configuration for a pipeline stage: the
// stage's override when one is configured, otherwise the base agent.
func (c *Config) AgentFor(stage string) gaconfig.AgentConfig {
	if agent, ok := c.StageAgents[stage]; ok {
		return agent
	}
	return c.Agent
}

// finalizeStageAgents layers each [stage_agents.<name>] table over a copy
// of the finalized base agent.
func (c *Config) finalizeStageAgents() error {
	for name, override := range c.StageAgents {
		agent, err := cloneAgent(&c.Agent)
		if err != nil {
			return fmt.Errorf("stage_agents.%s: %w", name, err)
		}
		agent.Merge(&override)

		if err := validateAgent(&agent); err != nil {
			return fmt.Errorf("stage_agents.%s: %w", name, err)
		}
		c.StageAgents[name] = agent
	}
	return nil
}

// cloneAgent deep-copies an agent config so stage overrides never write
// through shared provider or model pointers.
func cloneAgent(c *gaconfig.AgentConfig) (gaconfig.AgentConfig, error) {
	var out gaconfig.AgentConfig

	data, err := json.Marshal(c)
	if err != nil {
		return out, fmt.Errorf("copy agent config: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("copy agent config: %w", err)
	}
	return out, nil
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Provider.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
}

func validateAgent(c *gaconfig.AgentConfig) error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == nil {
		return fmt.Errorf("provider required")
	}
	if c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == nil {
		return fmt.Errorf("model required")
	}
	return nil
}
