package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/welfare-interviewer/internal/interview"
)

const (
	app = "welfare-interviewer"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "welfare-interviewer finds social welfare programs a person may qualify for through a short interview",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"dataset":                "WELFARE_DATASET",
		"ai.gemini.api-key":      "GEMINI_API_KEY",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("dataset", "data/eligibility.csv")
	viper.SetDefault("interview.shortlist-threshold", interview.DefaultShortlistThreshold)
	viper.SetDefault("interview.question-budget", interview.DefaultQuestionBudget)
	viper.SetDefault("interview.fallback", string(interview.FallbackShortlist))
	viper.SetDefault("interview.session-ttl", "1h")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.shutdown-timeout", "10s")
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", interview.DefaultTimeout.String())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is welfare-interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("dataset", "", "eligibility dataset in CSV format")
	rootCmd.PersistentFlags().StringP("exclude-file", "e", "", "special file with programs to exclude. Default is unset.")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("dataset", rootCmd.PersistentFlags().Lookup("dataset"))
	viper.BindPFlag("exclude-file", rootCmd.PersistentFlags().Lookup("exclude-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so only an explicit or broken config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}
