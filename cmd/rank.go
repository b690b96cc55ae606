package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/profile"
)

var rankCmd = &cobra.Command{
	Use:   "rank PROFILE_FILE [PROGRAM...]",
	Short: "Rank programs for a profile stored in a JSON or YAML file",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		rank(args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
}

func rank(profileFile string, candidates []string) {
	a := setup()

	p, err := readProfile(profileFile)
	if err != nil {
		a.logger.Fatal("reading the profile", zap.String("file", profileFile), zap.Error(err))
	}

	if len(candidates) == 0 {
		candidates = a.catalogue.Programs()
	} else {
		found, missing := a.catalogue.Lookup(candidates)
		if len(missing) > 0 {
			a.logger.Warn("skipping unknown programs", zap.Strings("programs", missing))
		}
		candidates = found
	}

	results := a.engine.Rank(&p, candidates)
	if len(results) == 0 {
		fmt.Println("No program scored above zero.")
		return
	}

	for i, r := range results {
		fmt.Printf("%d. %s (%d)\n", i+1, r.Program, r.Score)
		for _, rule := range r.Rules {
			fmt.Printf("   %+d %s: %s\n", rule.Delta, rule.Name, rule.Reason)
		}
	}
}

// readProfile reads a profile file in any format viper understands.
func readProfile(path string) (profile.Profile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return profile.Profile{}, err
	}
	return profile.FromMap(v.AllSettings())
}
