package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/health")
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}

			var data struct {
				Status      string `json:"status"`
				Version     string `json:"version"`
				Uptime      string `json:"uptime"`
				QueueDepth  int    `json:"queue_depth"`
				LoopRunning bool   `json:"loop_running"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Server:  %s\n", client.BaseURL)
			fmt.Printf("  Status:  %s\n", data.Status)
			fmt.Printf("  Version: %s\n", data.Version)
			fmt.Printf("  Uptime:  %s\n", data.Uptime)
			fmt.Printf("  Queue:   %d batches waiting (loop running: %t)\n", data.QueueDepth, data.LoopRunning)
			return nil
		},
	}
}
