package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions",
	Short: "Manage media exclusions",
}

var exclusionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exclusions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		exclusions, err := client.Exclusions()
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(exclusions)
			return nil
		}

		if len(exclusions) == 0 {
			fmt.Println("No exclusions")
			return nil
		}
		for _, e := range exclusions {
			scope := "global"
			if e.RuleGroupID != nil {
				scope = fmt.Sprintf("group %d", *e.RuleGroupID)
			}
			fmt.Printf("  %3d  %-12s  %-5s  %s\n", e.ID, e.MediaServerID, e.MediaType, scope)
		}
		return nil
	},
}

var exclusionsAddCmd = &cobra.Command{
	Use:   "add <media-server-id>",
	Short: "Exclude a media item from enforcement",
	Long: `Exclude a media item from enforcement.

Without --group the exclusion is global; with --group it only applies
to that rule group.

Examples:
  curatarr exclusions add 49915              # Exclude everywhere
  curatarr exclusions add 49915 --group 3    # Exclude from group 3 only`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mediaType, _ := cmd.Flags().GetString("type")
		req := &ExclusionRequest{MediaServerID: args[0], MediaType: mediaType}

		if groupID, _ := cmd.Flags().GetInt64("group"); groupID != 0 {
			req.RuleGroupID = &groupID
		}

		client := NewClient(serverURL)
		if err := client.AddExclusion(req); err != nil {
			return err
		}
		fmt.Printf("Excluded %s\n", args[0])
		return nil
	},
}

var exclusionsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an exclusion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exclusion ID: %s", args[0])
		}

		client := NewClient(serverURL)
		if err := client.RemoveExclusion(id); err != nil {
			return err
		}
		fmt.Printf("Removed exclusion %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exclusionsCmd)
	exclusionsCmd.AddCommand(exclusionsListCmd)
	exclusionsCmd.AddCommand(exclusionsAddCmd)
	exclusionsCmd.AddCommand(exclusionsRemoveCmd)

	exclusionsAddCmd.Flags().String("type", "movie", "Media type (movie or show)")
	exclusionsAddCmd.Flags().Int64("group", 0, "Restrict exclusion to one rule group")
}
