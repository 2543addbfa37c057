// Package config loads service configuration from YAML with environment
// overrides. Missing optional sections degrade capability rather than fail
// startup: no gateway means the mock knowledge connector, memory disabled
// means no cross-session context.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/advcomp/expertswarm/memory"
	"github.com/advcomp/expertswarm/model/bedrock"
	"github.com/advcomp/expertswarm/swarm"
)

// DefaultPath is consulted when no explicit path or SWARMD_CONFIG is set.
const DefaultPath = "config/swarmd.yaml"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Models  ModelsConfig  `yaml:"models"`
	Gateway GatewayConfig `yaml:"gateway"`
	Memory  MemoryConfig  `yaml:"memory"`
	Swarm   SwarmConfig   `yaml:"swarm"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Model provider names accepted by models.provider.
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type ModelsConfig struct {
	// Provider selects the hosted model backend. The anthropic and openai
	// providers read their API keys from the SDK's usual environment
	// variables; region only applies to bedrock.
	Provider               string  `yaml:"provider"`
	Region                 string  `yaml:"region"`
	CoordinatorID          string  `yaml:"coordinator_id"`
	ExpertID               string  `yaml:"expert_id"`
	CoordinatorTemperature float64 `yaml:"coordinator_temperature"`
	ExpertTemperature      float64 `yaml:"expert_temperature"`
	MaxTokens              int     `yaml:"max_tokens"`
}

// GatewayConfig carries the knowledge gateway endpoint and its OAuth client
// credentials. An empty URL disables the gateway entirely.
type GatewayConfig struct {
	URL           string `yaml:"url"`
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	TokenEndpoint string `yaml:"token_endpoint"`
	Scope         string `yaml:"scope"`
}

// Enabled reports whether a gateway endpoint is configured.
func (g GatewayConfig) Enabled() bool { return g.URL != "" }

type MemoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	ActorID string `yaml:"actor_id"`
	Window  int    `yaml:"window"`
}

type SwarmConfig struct {
	MaxHandoffs      int           `yaml:"max_handoffs"`
	MaxIterations    int           `yaml:"max_iterations"`
	ExecutionTimeout time.Duration `yaml:"execution_timeout"`
	NodeTimeout      time.Duration `yaml:"node_timeout"`
	MaxModelCalls    int           `yaml:"max_model_calls"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 15 * time.Second,
		},
		Models: ModelsConfig{
			Provider:               ProviderBedrock,
			Region:                 "us-east-1",
			CoordinatorID:          bedrock.ModelClaudeHaiku,
			ExpertID:               bedrock.ModelClaudeSonnet,
			CoordinatorTemperature: 0.2,
			ExpertTemperature:      0.4,
		},
		Memory: MemoryConfig{
			Enabled: true,
			ActorID: "advcomp-coordinator",
			Window:  memory.DefaultWindow,
		},
		Swarm: SwarmConfig{
			MaxHandoffs:      swarm.DefaultMaxHandoffs,
			MaxIterations:    swarm.DefaultMaxIterations,
			ExecutionTimeout: swarm.DefaultExecutionTimeout,
			NodeTimeout:      swarm.DefaultNodeTimeout,
			MaxModelCalls:    swarm.DefaultMaxModelCalls,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the config file at path, falling back to SWARMD_CONFIG and
// then DefaultPath. A missing file is not an error; a present but invalid
// file is.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv("SWARMD_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SWARMD_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("MODEL_PROVIDER"); v != "" {
		cfg.Models.Provider = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Models.Region = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Models.ExpertID = v
	}
	if v := os.Getenv("COORDINATOR_MODEL_ID"); v != "" {
		cfg.Models.CoordinatorID = v
	}
	if v := os.Getenv("GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("OAUTH_CLIENT_ID"); v != "" {
		cfg.Gateway.ClientID = v
	}
	if v := os.Getenv("OAUTH_CLIENT_SECRET"); v != "" {
		cfg.Gateway.ClientSecret = v
	}
	if v := os.Getenv("OAUTH_TOKEN_ENDPOINT"); v != "" {
		cfg.Gateway.TokenEndpoint = v
	}
	if v := os.Getenv("OAUTH_SCOPE"); v != "" {
		cfg.Gateway.Scope = v
	}
	if v := os.Getenv("MEMORY_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Memory.Enabled = enabled
		}
	}
	if v := os.Getenv("COORDINATOR_ACTOR_ID"); v != "" {
		cfg.Memory.ActorID = v
	}
	if v := os.Getenv("SWARMD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SWARMD_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
