package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spigell/welfare-interviewer/internal/interview"
	"github.com/spigell/welfare-interviewer/internal/selection"
)

type Config struct {
	Dataset     string             `mapstructure:"dataset"`
	ExcludeFile string             `mapstructure:"exclude-file"`
	Weights     map[string]float64 `mapstructure:"weights"`
	Interview   *InterviewConfig   `mapstructure:"interview"`
	Server      *ServerConfig      `mapstructure:"server"`
	AI          *AIConfig          `mapstructure:"ai"`
}

type InterviewConfig struct {
	ShortlistThreshold int           `mapstructure:"shortlist-threshold"`
	QuestionBudget     int           `mapstructure:"question-budget"`
	Fallback           string        `mapstructure:"fallback"`
	SessionTTL         time.Duration `mapstructure:"session-ttl"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate checks the settings that cannot be defaulted safely.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dataset) == "" {
		return errors.New("dataset is required")
	}

	if err := c.weights().Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}

	if c.Interview != nil {
		if c.Interview.ShortlistThreshold <= 0 {
			return fmt.Errorf("interview.shortlist-threshold must be positive, got %d", c.Interview.ShortlistThreshold)
		}
		if c.Interview.QuestionBudget <= 0 {
			return fmt.Errorf("interview.question-budget must be positive, got %d", c.Interview.QuestionBudget)
		}
		if _, err := interview.ParseFallbackPolicy(c.Interview.Fallback); err != nil {
			return fmt.Errorf("interview.fallback: %w", err)
		}
		if c.Interview.SessionTTL < 0 {
			return errors.New("interview.session-ttl must not be negative")
		}
	}

	if c.AI != nil && c.AI.Enabled {
		provider := strings.TrimSpace(strings.ToLower(c.AI.Provider))
		if provider != "" && provider != "gemini" {
			return fmt.Errorf("unsupported ai provider: %s", c.AI.Provider)
		}
		if c.AI.Timeout <= 0 {
			return fmt.Errorf("ai.timeout must be positive, got %s", c.AI.Timeout)
		}
	}

	return nil
}

func (c *Config) weights() selection.Weights {
	return selection.DefaultWeights().With(c.Weights)
}

func (c *Config) interviewOptions() interview.Options {
	opts := interview.Options{ExcludeFile: c.ExcludeFile}

	if c.Interview != nil {
		opts.ShortlistThreshold = c.Interview.ShortlistThreshold
		opts.QuestionBudget = c.Interview.QuestionBudget
		// Validate already rejected unknown policies.
		opts.Fallback, _ = interview.ParseFallbackPolicy(c.Interview.Fallback)
	}
	if c.AI != nil {
		opts.Timeout = c.AI.Timeout
	}

	return opts
}
