package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/interview"
	"github.com/spigell/welfare-interviewer/internal/programs"
)

const (
	PromptBreakdown           = "Show score breakdown"
	PromptAppendToExcludeFile = "Append recommended programs to exclude file"
	PromptResultToFile        = "Dump result to file"
	PromptRestart             = "Start over"
	PromptExit                = "Exit"
)

var (
	errExit    = errors.New("exit requested")
	errRestart = errors.New("restart requested")
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interview in the terminal",
	Run: func(_ *cobra.Command, _ []string) {
		runInterview()
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)
}

func runInterview() {
	ctx := context.Background()
	a := setup()
	coordinator, _ := a.coordinator(ctx)

	a.logger.Info("starting the interview", zap.String("version", version))

	for {
		snap, err := converse(ctx, coordinator)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			a.logger.Fatal("interview failed", zap.Error(err))
		}

		if err := afterInterview(a, snap); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			if errors.Is(err, errRestart) {
				continue
			}
			a.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// converse asks questions until the coordinator finishes the session.
func converse(ctx context.Context, coordinator *interview.Coordinator) (interview.Snapshot, error) {
	reply := coordinator.Start(ctx)

	for !reply.Done {
		answer := promptui.Prompt{
			Label: reply.Question.Text,
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return interview.ErrEmptyAnswer
				}
				return nil
			},
		}

		text, err := answer.Run()
		if err != nil {
			return interview.Snapshot{}, err
		}

		reply, err = coordinator.Respond(ctx, reply.SessionID, text)
		if err != nil {
			return interview.Snapshot{}, err
		}
	}

	return coordinator.Get(reply.SessionID)
}

func afterInterview(a *application, snap interview.Snapshot) error {
	printRecommendation(a.catalogue, snap)

	for {
		items := []string{PromptBreakdown, PromptResultToFile}

		excludeFile := a.config.ExcludeFile
		if excludeFile != "" && len(snap.Recommended) != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		menu := promptui.Select{
			Label: "What next?",
			Items: append(items, PromptRestart, PromptExit),
		}

		_, action, err := menu.Run()
		if err != nil {
			return errExit
		}

		switch action {
		case PromptBreakdown:
			for _, result := range snap.Results {
				fmt.Printf("%s: %d\n", result.Program, result.Score)
				for _, rule := range result.Rules {
					fmt.Printf("  %+d %s (%s)\n", rule.Delta, rule.Name, rule.Reason)
				}
			}
		case PromptResultToFile:
			filename, err := dumpToTmpFile(snap)
			if err != nil {
				return fmt.Errorf("dump result to file: %w", err)
			}
			a.logger.Info("dumping result to file", zap.String("filename", filename))
		case PromptAppendToExcludeFile:
			excluded, err := programs.LoadExcluded(excludeFile)
			if err != nil {
				return err
			}

			excluded.Append(programs.NewExcluded("recommended in session "+snap.ID.String(), snap.Recommended...))

			if err = excluded.ToFile(excludeFile); err != nil {
				return err
			}

			a.logger.Info("appended to exclude file", zap.String("filename", excludeFile))
		case PromptRestart:
			return errRestart
		case PromptExit:
			a.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
			return errExit
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func printRecommendation(catalogue *programs.Catalogue, snap interview.Snapshot) {
	if len(snap.Recommended) == 0 {
		fmt.Println("No program matched your answers.")
		return
	}

	if snap.Fallback {
		fmt.Println("No program scored clearly; these are the candidates from our conversation:")
	} else {
		fmt.Println("Programs you may qualify for, best match first:")
	}

	for i, id := range snap.Recommended {
		if desc := catalogue.Description(id); desc != "" {
			fmt.Printf("%d. %s: %s\n", i+1, id, desc)
			continue
		}
		fmt.Printf("%d. %s\n", i+1, id)
	}
}

func dumpToTmpFile(snap interview.Snapshot) (string, error) {
	file, err := os.CreateTemp("", app+"-*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return "", err
	}
	return file.Name(), nil
}
