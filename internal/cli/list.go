package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		priority string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ingestion requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if priority != "" {
				q.Set("priority", priority)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/ingestions"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list ingestions: %w", err)
			}

			var data []map[string]any
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(data) == 0 {
				fmt.Println("No ingestions found.")
				return nil
			}

			fmt.Printf("%-40s  %-8s  %-12s  %s\n", "ID", "PRIORITY", "STATUS", "CREATED")
			fmt.Printf("%-40s  %-8s  %-12s  %s\n", "----", "--------", "------", "-------")
			for _, ing := range data {
				id, _ := ing["ingestion_id"].(string)
				pr, _ := ing["priority"].(string)
				status, _ := ing["status"].(string)
				createdAt, _ := ing["created_at"].(string)
				fmt.Printf("%-40s  %-8s  %-12s  %s\n", id, pr, status, createdAt)
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(data), resp.Pagination.Total)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Filter by priority (HIGH, MEDIUM, LOW)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	return cmd
}
