package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Server   ServerConfig   `envconfig:""`
	Log      LogConfig      `envconfig:""`
	LLM      LLMConfig      `envconfig:""`
	Composio ComposioConfig `envconfig:""`
	Redis    RedisConfig    `envconfig:""`
	Workflow WorkflowConfig `envconfig:""`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"5000"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"console"`
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/app.log"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
}

// LLMConfig holds settings for the generation model.
type LLMConfig struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY"`
	BaseURL     string  `envconfig:"LLM_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	Model       string  `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	Temperature float64 `envconfig:"LLM_TEMPERATURE" default:"0.3"`
}

// ComposioConfig holds settings for the Composio tool-execution proxy.
type ComposioConfig struct {
	APIKey       string `envconfig:"COMPOSIO_API_KEY"`
	BaseURL      string `envconfig:"COMPOSIO_BASE_URL" default:"https://backend.composio.dev"`
	UserID       string `envconfig:"COMPOSIO_USER_ID" default:"build-with-me-buddy-developer-001"`
	AuthConfigID string `envconfig:"NOTION_AUTH_CONFIG_ID"`
	ParentPageID string `envconfig:"NOTION_PARENT_PAGE_ID"`
}

// RedisConfig holds session store settings. An empty URL selects the
// in-memory store.
type RedisConfig struct {
	URL        string `envconfig:"REDIS_URL"`
	TTLSeconds int    `envconfig:"SESSION_TTL_SECONDS" default:"2400"`
}

// WorkflowConfig holds stage-sequencer settings.
type WorkflowConfig struct {
	CheckpointPath string `envconfig:"CHECKPOINT_FILE" default:"task_progress.json"`
	TasksPath      string `envconfig:"TASKS_CONFIG" default:"config.yaml"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	// GOOGLE_API_KEY is accepted as an alias for the model key
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	return &config, nil
}

// Validate checks startup-fatal requirements.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY or GEMINI_API_KEY not found in environment")
	}
	return nil
}
