package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/driftboard/driftboard/pkg/client"
)

func newAlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage alerts",
	}

	cmd.AddCommand(newAlertListCmd())
	cmd.AddCommand(newAlertUnreadCmd())
	cmd.AddCommand(newAlertReadCmd())

	return cmd
}

func newAlertListCmd() *cobra.Command {
	var driftID, alertType, severity string
	var unreadOnly bool
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			opts := &client.AlertListOptions{
				ListOptions: client.ListOptions{Page: page, Limit: limit},
				DriftID:     driftID,
				Type:        alertType,
				Severity:    severity,
			}
			if unreadOnly {
				v := false
				opts.Read = &v
			}

			result, err := apiClient.Alerts().List(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			t := NewTable("ID", "DRIFT", "TYPE", "SEVERITY", "READ", "TITLE", "CREATED")
			for _, a := range result.Data {
				t.AddRow(
					truncate(a.ID, 12),
					truncate(a.DriftID, 12),
					a.Type,
					formatSeverity(a.Severity),
					strconv.FormatBool(a.Read),
					truncate(a.Title, 40),
					a.CreatedAt.Format("2006-01-02 15:04"),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d total)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&driftID, "drift", "", "filter by drift ID")
	cmd.Flags().StringVar(&alertType, "type", "", "filter by alert type")
	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "show only unread alerts")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")

	return cmd
}

func newAlertUnreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread-count",
		Short: "Show the number of unread alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := apiClient.Alerts().UnreadCount(context.Background())
			if err != nil {
				return fmt.Errorf("failed to count unread alerts: %w", err)
			}
			fmt.Printf("%d unread alert(s)\n", count)
			return nil
		},
	}
}

func newAlertReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark an alert as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Alerts().MarkRead(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to mark alert read: %w", err)
			}
			fmt.Printf("Alert %s marked read\n", a.ID)
			return nil
		},
	}
}
