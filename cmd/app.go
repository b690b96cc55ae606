package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/ai"
	"github.com/spigell/welfare-interviewer/internal/ai/gemini"
	"github.com/spigell/welfare-interviewer/internal/interview"
	"github.com/spigell/welfare-interviewer/internal/logger"
	"github.com/spigell/welfare-interviewer/internal/programs"
	"github.com/spigell/welfare-interviewer/internal/ranking"
	"github.com/spigell/welfare-interviewer/internal/secrets"
	"github.com/spigell/welfare-interviewer/internal/selection"
)

// application holds what every command needs. The dataset is loaded once and
// shared read-only.
type application struct {
	config    *Config
	logger    *zap.Logger
	catalogue *programs.Catalogue
	optimizer *selection.Optimizer
	engine    *ranking.Engine
}

// setup loads the config and the dataset. Any failure is fatal.
func setup() *application {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	catalogue, err := programs.Load(config.Dataset)
	if err != nil {
		logger.Fatal("loading the eligibility dataset",
			zap.String("dataset", config.Dataset),
			zap.Error(err),
			zap.String("hint", "set WELFARE_DATASET environment variable, --dataset flag or the 'dataset' key in the configuration file"),
		)
	}

	logger.Info("eligibility dataset loaded",
		zap.String("dataset", config.Dataset),
		zap.Int("programs", catalogue.Len()),
		zap.Int("fields", len(catalogue.Fields())),
	)

	return &application{
		config:    config,
		logger:    logger,
		catalogue: catalogue,
		optimizer: selection.New(catalogue, config.weights()),
		engine:    ranking.New(catalogue, logger.Named("ranking")),
	}
}

func (a *application) coordinator(ctx context.Context) (*interview.Coordinator, *interview.Store) {
	collaborators, err := newCollaborators(ctx, a.config.AI, a.logger)
	if err != nil {
		a.logger.Warn("running without ai collaborators", zap.Error(err))
	}

	store := interview.NewStore()
	driver := interview.NewDriver(a.catalogue, a.optimizer, a.engine, collaborators, a.config.interviewOptions(), a.logger.Named("interview"))

	return interview.NewCoordinator(store, driver, a.logger.Named("interview")), store
}

// newCollaborators builds the model-backed collaborators. Disabled AI yields
// an empty set, which makes every interview run on the offline defaults.
func newCollaborators(ctx context.Context, cfg *AIConfig, base *zap.Logger) (ai.Collaborators, error) {
	if cfg == nil || !cfg.Enabled {
		return ai.Collaborators{}, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return ai.Collaborators{}, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  gcfg.APIKeyFile,
		Value: gcfg.APIKey,
	})
	if err != nil {
		return ai.Collaborators{}, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithCommonFields(base, "gemini", gcfg.Model).With(
		zap.Int("ai_retry_attempts", gcfg.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, gcfg.Model, gcfg.MaxRetries, genLogger)
	if err != nil {
		return ai.Collaborators{}, err
	}

	assistantLogger := logger.WithCommonFields(base, "gemini", generator.Model())

	return gemini.NewAssistant(generator, gcfg.MaxLogLength, assistantLogger).Collaborators(), nil
}

func redacted(c *Config) *Config {
	if c == nil || c.AI == nil || c.AI.Gemini == nil || c.AI.Gemini.APIKey == "" {
		return c
	}

	out := *c
	aiCfg := *c.AI
	gcfg := *c.AI.Gemini
	gcfg.APIKey = "***"
	aiCfg.Gemini = &gcfg
	out.AI = &aiCfg
	return &out
}
