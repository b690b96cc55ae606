package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spigell/welfare-interviewer/internal/selection"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Show how informative each dataset field is",
	Run: func(cmd *cobra.Command, _ []string) {
		asked, _ := cmd.Flags().GetStringSlice("asked")
		eliminated, _ := cmd.Flags().GetStringSlice("eliminated")
		printFields(setup(), asked, eliminated)
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)

	fieldsCmd.Flags().StringSlice("asked", nil, "fields already asked")
	fieldsCmd.Flags().StringSlice("eliminated", nil, "programs already eliminated")
}

func printFields(a *application, asked, eliminated []string) {
	scores := a.optimizer.Scores(selection.NewSet(asked...), selection.NewSet(eliminated...))
	if len(scores) == 0 {
		fmt.Println("Nothing left to ask.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tGROUPS\tDISTINCT\tRAW\tWEIGHT\tSCORE")
	for _, s := range scores {
		fmt.Fprintf(w, "%s\t%d\t%d/%d\t%.4f\t%.2f\t%.4f\n", s.Field, s.Groups, s.Distinct, s.DistinctAll, s.Raw, s.Weight, s.Weighted)
	}
	w.Flush()
}
