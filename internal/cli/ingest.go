package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// parseIDs converts comma-separated arguments like "1,2,3" "4" into a flat
// identifier list.
func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}

func newIngestCmd() *cobra.Command {
	var (
		priority string
		idsFile  string
	)

	cmd := &cobra.Command{
		Use:   "ingest <id>[,<id>...] ...",
		Short: "Submit identifiers for batch ingestion",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if idsFile != "" {
				data, err := os.ReadFile(idsFile)
				if err != nil {
					return fmt.Errorf("read ids file: %w", err)
				}
				args = append(args, strings.Fields(string(data))...)
			}
			if len(args) == 0 {
				return fmt.Errorf("no ids given (pass as arguments or via --file)")
			}

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			resp, err := client.Post("/ingest", map[string]any{
				"ids":      ids,
				"priority": priority,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			var data struct {
				IngestionID string `json:"ingestion_id"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Ingestion: %s\n", data.IngestionID)
			fmt.Printf("  Priority: %s\n", strings.ToUpper(priority))
			fmt.Printf("  IDs:      %d\n", len(ids))
			return nil
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "MEDIUM", "Priority (HIGH, MEDIUM, LOW)")
	cmd.Flags().StringVarP(&idsFile, "file", "f", "", "Read ids from a file (whitespace or comma separated)")
	return cmd
}
