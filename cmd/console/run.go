package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/patentbot/internal/cases"
	"github.com/JaimeStill/patentbot/internal/console"
)

var runCmd = &cobra.Command{
	Use:   "run <case-id>",
	Short: "Run or resume the pipeline of a case with live progress",
	Long: `Run executes the remaining pipeline stages of a case and prints each
progress event as the server emits it. A failed case resumes from the
stage after its last completed one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid case id: %w", err)
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		last, err := client.RunCase(cmd.Context(), id, func(ev cases.Event) {
			fmt.Print(console.FormatEvent(ev))
		})
		if err != nil {
			return err
		}
		if last.Type == cases.EventFailed {
			return fmt.Errorf("run failed at %s; run again to resume", last.Stage)
		}
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <case-id>",
	Short: "Show the events of the latest run of a case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid case id: %w", err)
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		events, err := client.Progress(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "no progress recorded for this case")
		}
		for _, ev := range events {
			fmt.Print(console.FormatEvent(ev))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd, progressCmd)
}
