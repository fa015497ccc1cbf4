package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/patentbot/internal/cases"
	"github.com/JaimeStill/patentbot/internal/console"
	"github.com/JaimeStill/patentbot/internal/documents"
	"github.com/JaimeStill/patentbot/pkg/formatting"
)

var (
	listPage     int
	listPageSize int

	createTitle       string
	createMode        string
	createApplication string
	createAction      string
	createClaims      string
	createPriorArt    []string
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage office-action response cases",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		page, err := client.ListCases(cmd.Context(), listPage, listPageSize)
		if err != nil {
			return err
		}

		for _, c := range page.Data {
			fmt.Println(console.FormatCase(c))
		}
		fmt.Printf("\npage %d of %d (%d cases)\n", page.Page, page.TotalPages, page.Total)
		return nil
	},
}

var casesShowCmd = &cobra.Command{
	Use:   "show <case-id>",
	Short: "Show a case with its documents and record",
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

		c, err := client.FindCase(cmd.Context(), id)
		if err != nil {
			return err
		}
		docs, err := client.Documents(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Println(console.FormatCase(*c))
		fmt.Println()
		for _, d := range docs {
			fmt.Printf("  %-18s %d  %s (%s)\n", d.Role, d.Position, d.Filename, formatting.FormatBytes(d.SizeBytes, 1))
		}
		fmt.Println()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Record)
	},
}

var casesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a case from its source documents",
	Example: `  patentbot-console cases create --title "Widget OA" \
    --application app.pdf --office-action oa.pdf --claims claims.pdf \
    --prior-art us123.pdf --prior-art us456.pdf`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		req := console.CreateRequest{
			Title: createTitle,
			Mode:  cases.Mode(createMode),
			Uploads: []console.Upload{
				{Role: documents.RolePatentApplication, Path: createApplication},
				{Role: documents.RoleOfficeAction, Path: createAction},
				{Role: documents.RoleRecentClaims, Path: createClaims},
			},
		}
		for _, path := range createPriorArt {
			req.Uploads = append(req.Uploads, console.Upload{Role: documents.RolePriorArt, Path: path})
		}

		intake, err := client.CreateCase(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Println(console.FormatCase(*intake.Case))
		fmt.Printf("%d documents uploaded\n", len(intake.Documents))
		return nil
	},
}

var casesDeleteCmd = &cobra.Command{
	Use:   "delete <case-id>",
	Short: "Delete a case with its documents and session",
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

		if err := client.DeleteCase(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Println("deleted", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(casesCmd)
	casesCmd.AddCommand(casesListCmd, casesShowCmd, casesCreateCmd, casesDeleteCmd)

	casesListCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	casesListCmd.Flags().IntVar(&listPageSize, "page-size", 20, "cases per page")

	f := casesCreateCmd.Flags()
	f.StringVar(&createTitle, "title", "", "case title")
	f.StringVar(&createMode, "mode", string(cases.ModeInteractive), "pipeline mode (interactive, single_pass)")
	f.StringVar(&createApplication, "application", "", "patent application file")
	f.StringVar(&createAction, "office-action", "", "office action file")
	f.StringVar(&createClaims, "claims", "", "most recent claims file")
	f.StringSliceVar(&createPriorArt, "prior-art", nil, "prior art file (repeatable)")
	for _, name := range []string{"title", "application", "office-action", "claims"} {
		_ = casesCreateCmd.MarkFlagRequired(name)
	}
}
