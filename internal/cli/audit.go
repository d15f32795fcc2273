package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftboard/driftboard/pkg/client"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}

	cmd.AddCommand(newAuditListCmd())

	return cmd
}

func newAuditListCmd() *cobra.Command {
	var driftID, action, actor string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			opts := &client.AuditListOptions{
				ListOptions: client.ListOptions{Page: page, Limit: limit},
				DriftID:     driftID,
				Action:      action,
				ActorID:     actor,
			}

			result, err := apiClient.AuditLogs().List(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to list audit logs: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			t := NewTable("ID", "ACTION", "DRIFT", "ACTOR", "DETAILS", "WHEN")
			for _, l := range result.Data {
				t.AddRow(
					truncate(l.ID, 12),
					l.Action,
					truncate(l.DriftID, 12),
					l.ActorID,
					truncate(l.Details, 40),
					l.CreatedAt.Format("2006-01-02 15:04:05"),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d total)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&driftID, "drift", "", "filter by drift ID")
	cmd.Flags().StringVar(&action, "action", "", "filter by action")
	cmd.Flags().StringVar(&actor, "actor", "", "filter by actor ID")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")

	return cmd
}
