package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trigger an enforcement run",
	Long: `Trigger an enforcement run on the server.

The run executes in the background; use 'curatarr status' to follow it.
Fails if a run is already in progress.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		if err := client.TriggerRun(); err != nil {
			return fmt.Errorf("trigger failed: %w", err)
		}
		fmt.Println("Run accepted")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Server status and last run summary",
	Args:  cobra.NoArgs,
	RunE:  runStatusCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}

	fmt.Printf("Server:   %s (%s)\n", serverURL, status.Status)
	if status.Running {
		fmt.Println("Run:      in progress")
	} else {
		fmt.Println("Run:      idle")
	}
	if lr := status.LastRun; lr != nil {
		fmt.Printf("Last run: %s\n", lr.RunID)
		fmt.Printf("  started:  %s\n", lr.Started)
		fmt.Printf("  duration: %s\n", time.Duration(lr.Duration))
		fmt.Printf("  handled:  %d\n", lr.Handled)
		fmt.Printf("  skipped:  %d\n", lr.Skipped)
		fmt.Printf("  failures: %d\n", lr.Failures)
	}
	return nil
}
