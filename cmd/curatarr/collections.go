package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Inspect tracked collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		cols, err := client.Collections()
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(cols)
			return nil
		}

		if len(cols) == 0 {
			fmt.Println("No collections")
			return nil
		}

		fmt.Printf("  # │ %-30s │ %-5s │ %-6s │ %-8s │ %s\n", "TITLE", "TYPE", "ITEMS", "LINKED", "SIZE")
		fmt.Println("────┼────────────────────────────────┼───────┼────────┼──────────┼─────────")
		for _, c := range cols {
			title := c.Title
			if len(title) > 30 {
				title = title[:27] + "..."
			}
			linked := "no"
			if c.MediaServerID != "" {
				linked = "yes"
			}
			fmt.Printf(" %2d │ %-30s │ %-5s │ %6d │ %-8s │ %s\n",
				c.ID, title, c.MediaType, c.HandledMediaAmount, linked, formatSize(c.TotalSizeBytes))
		}
		return nil
	},
}

var collectionsMediaCmd = &cobra.Command{
	Use:   "media <id>",
	Short: "List a collection's members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid collection ID: %s", args[0])
		}

		client := NewClient(serverURL)
		media, err := client.CollectionMedia(id)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(media)
			return nil
		}

		if len(media) == 0 {
			fmt.Println("No members")
			return nil
		}
		for _, m := range media {
			manual := ""
			if m.IsManual {
				manual = " (manual)"
			}
			fmt.Printf("  %-12s added %s%s\n", m.MediaServerID, m.AddDate, manual)
		}
		return nil
	},
}

var collectionsLogsCmd = &cobra.Command{
	Use:   "logs <id>",
	Short: "Show a collection's run log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid collection ID: %s", args[0])
		}

		client := NewClient(serverURL)
		logs, err := client.CollectionLogs(id)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(logs)
			return nil
		}

		if len(logs) == 0 {
			fmt.Println("No log entries")
			return nil
		}
		for _, l := range logs {
			fmt.Printf("  %s  %-36s  %s\n", l.CreatedAt, l.RunID, l.Message)
		}
		return nil
	},
}

func formatSize(bytes *int64) string {
	if bytes == nil {
		return "-"
	}
	b := *bytes
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(b)/(1<<20))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsMediaCmd)
	collectionsCmd.AddCommand(collectionsLogsCmd)
}
