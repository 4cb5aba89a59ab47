package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sah21il/LoopAIProj/pkg/model"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <ingestion_id>",
		Short: "Check the status of an ingestion request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			resp, err := client.Get("/status/" + id)
			if err != nil {
				return fmt.Errorf("get status: %w", err)
			}

			var data model.StatusResponse
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Ingestion: %s\n", data.IngestionID)
			fmt.Printf("  Status:  %s\n", data.Status)
			if len(data.Batches) > 0 {
				fmt.Println("  Batches:")
				for _, b := range data.Batches {
					fmt.Printf("    - %s: %s (%d ids)\n", b.ID, b.Status, len(b.IDs))
				}
			}
			return nil
		},
	}
}
