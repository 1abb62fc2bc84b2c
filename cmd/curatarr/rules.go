package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage rule groups",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rule groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		groups, err := client.RuleGroups()
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(groups)
			return nil
		}

		if len(groups) == 0 {
			fmt.Println("No rule groups")
			return nil
		}

		fmt.Printf("  # │ %-30s │ %-5s │ %-8s │ %s\n", "NAME", "TYPE", "ACTIVE", "LIBRARY")
		fmt.Println("────┼────────────────────────────────┼───────┼──────────┼─────────")
		for _, g := range groups {
			name := g.Name
			if len(name) > 30 {
				name = name[:27] + "..."
			}
			active := "no"
			if g.IsActive {
				active = "yes"
			}
			fmt.Printf(" %2d │ %-30s │ %-5s │ %-8s │ %s\n", g.ID, name, g.MediaType, active, g.LibraryID)
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a rule group with its rule document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rule group ID: %s", args[0])
		}

		client := NewClient(serverURL)
		g, err := client.RuleGroup(id)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(g)
			return nil
		}

		fmt.Printf("Name:      %s\n", g.Name)
		fmt.Printf("Type:      %s\n", g.MediaType)
		fmt.Printf("Library:   %s\n", g.LibraryID)
		fmt.Printf("Active:    %v\n", g.IsActive)
		if g.CronSchedule != "" {
			fmt.Printf("Schedule:  %s\n", g.CronSchedule)
		}
		if g.Document != "" {
			fmt.Printf("\n%s", g.Document)
		}
		return nil
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a rule group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rule group ID: %s", args[0])
		}

		client := NewClient(serverURL)
		if err := client.DeleteRuleGroup(id); err != nil {
			return err
		}
		fmt.Printf("Deleted rule group %d\n", id)
		return nil
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a rule group as a yaml document",
	Long: `Export a rule group's rules as a portable yaml document.

Writes to stdout unless -o is given.

Examples:
  curatarr rules export 3                  # Print to stdout
  curatarr rules export 3 -o cleanup.yaml  # Write to file`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rule group ID: %s", args[0])
		}

		client := NewClient(serverURL)
		doc, err := client.ExportRuleGroup(id)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			fmt.Print(string(doc))
			return nil
		}
		if err := os.WriteFile(output, doc, 0644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		fmt.Printf("Exported rule group %d to %s\n", id, output)
		return nil
	},
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a rule document as a new inactive group",
	Long: `Import a yaml rule document as a new rule group.

The group is created inactive; review it and activate via the API or UI.

Examples:
  curatarr rules import cleanup.yaml --name "Movie cleanup" --library 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		name, _ := cmd.Flags().GetString("name")
		mediaType, _ := cmd.Flags().GetString("type")
		library, _ := cmd.Flags().GetString("library")

		client := NewClient(serverURL)
		g, err := client.ImportRuleGroup(&ImportGroupRequest{
			Name:      name,
			MediaType: mediaType,
			LibraryID: library,
			Document:  string(doc),
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(g)
			return nil
		}
		fmt.Printf("Imported rule group %d (%s), inactive\n", g.ID, g.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesImportCmd)

	rulesExportCmd.Flags().StringP("output", "o", "", "Write document to file")

	rulesImportCmd.Flags().String("name", "", "Name for the imported group")
	rulesImportCmd.Flags().String("type", "movie", "Media type (movie or show)")
	rulesImportCmd.Flags().String("library", "", "Library ID the group applies to")
	_ = rulesImportCmd.MarkFlagRequired("name")
	_ = rulesImportCmd.MarkFlagRequired("library")
}
