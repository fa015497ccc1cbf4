package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/patentbot/internal/console"
	"github.com/JaimeStill/patentbot/internal/resolution"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <case-id>",
	Short: "Resolve the rejected claims of a case interactively",
	Long: `Resolve opens (or resumes) the resolution session of a case and walks
through its rejected claims. Select a disposition, confirm it, and the
draft is generated once the last claim is confirmed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caseID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid case id: %w", err)
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		session, err := client.StartSession(cmd.Context(), caseID)
		if err != nil {
			return err
		}

		model := console.NewResolveModel(cmd.Context(), client, session.ID)
		final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
		if err != nil {
			return err
		}

		if p := final.(*console.ResolveModel).Presentation(); p != nil && p.State == resolution.StateDraftGenerated {
			fmt.Println(p.Draft)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the console version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("patentbot-console", version)
	},
}

var version = "dev"

func init() {
	rootCmd.AddCommand(resolveCmd, versionCmd)
}
