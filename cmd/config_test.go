package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spigell/welfare-interviewer/internal/interview"
	"github.com/spigell/welfare-interviewer/internal/programs"
)

func validConfig() *Config {
	return &Config{
		Dataset: "data/eligibility.csv",
		Interview: &InterviewConfig{
			ShortlistThreshold: 6,
			QuestionBudget:     6,
			Fallback:           "shortlist",
			SessionTTL:         time.Hour,
		},
		AI: &AIConfig{Enabled: true, Provider: "gemini", Timeout: 30 * time.Second},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no dataset", mutate: func(c *Config) { c.Dataset = " " }, wantErr: "dataset is required"},
		{name: "zero threshold", mutate: func(c *Config) { c.Interview.ShortlistThreshold = 0 }, wantErr: "shortlist-threshold"},
		{name: "negative budget", mutate: func(c *Config) { c.Interview.QuestionBudget = -1 }, wantErr: "question-budget"},
		{name: "unknown fallback", mutate: func(c *Config) { c.Interview.Fallback = "halve" }, wantErr: "interview.fallback"},
		{name: "bad weight", mutate: func(c *Config) { c.Weights = map[string]float64{programs.ColumnVeteran: 0} }, wantErr: "weights"},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "openai" }, wantErr: "unsupported ai provider"},
		{name: "no timeout", mutate: func(c *Config) { c.AI.Timeout = 0 }, wantErr: "ai.timeout"},
		{name: "disabled ai ignores provider", mutate: func(c *Config) { c.AI.Enabled = false; c.AI.Provider = "openai" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInterviewOptions(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.ExcludeFile = "excluded.json"
	c.Interview.Fallback = "NONE"
	c.Weights = map[string]float64{programs.ColumnVeteran: 3}

	opts := c.interviewOptions()
	if opts.Fallback != interview.FallbackNone || opts.ExcludeFile != "excluded.json" || opts.Timeout != 30*time.Second {
		t.Fatalf("unexpected options: %+v", opts)
	}

	w := c.weights()
	if w.Of(programs.ColumnVeteran) != 3 || w.Of(programs.ColumnHouseholdSize) != 1.5 {
		t.Fatalf("expected overrides on top of defaults, got %v", w)
	}
}
