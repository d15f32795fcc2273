package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/driftboard/driftboard/pkg/client"
)

func newDriftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Manage drift lifecycle",
	}

	cmd.AddCommand(newDriftListCmd())
	cmd.AddCommand(newDriftGetCmd())
	cmd.AddCommand(newDriftSummaryCmd())
	cmd.AddCommand(newDriftTriageCmd())
	cmd.AddCommand(newDriftApproveCmd())
	cmd.AddCommand(newDriftRejectCmd())
	cmd.AddCommand(newDriftResolveCmd())

	return cmd
}

func newDriftListCmd() *cobra.Command {
	var status, severity, resourceType, region, search, sort, order string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drifts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			opts := &client.DriftListOptions{
				ListOptions: client.ListOptions{
					Page:  page,
					Limit: limit,
					Sort:  sort,
					Order: order,
				},
				Status:       status,
				Severity:     severity,
				ResourceType: resourceType,
				Region:       region,
				Search:       search,
			}

			result, err := apiClient.Drifts().List(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to list drifts: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(result)
			}

			t := NewTable("ID", "RESOURCE", "TYPE", "REGION", "SEVERITY", "STATUS", "COST/MO", "DETECTED")
			for _, d := range result.Data {
				t.AddRow(
					truncate(d.ID, 12),
					d.ResourceID,
					d.ResourceType,
					d.Region,
					formatSeverity(d.Severity),
					formatStatus(d.Status),
					strconv.FormatFloat(d.CostImpactMonthly, 'f', 2, 64),
					d.DetectedAt.Format("2006-01-02 15:04"),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d total)\n", result.Page, result.TotalPages, result.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity")
	cmd.Flags().StringVar(&resourceType, "resource-type", "", "filter by resource type")
	cmd.Flags().StringVar(&region, "region", "", "filter by region")
	cmd.Flags().StringVar(&search, "search", "", "substring match on resource ID")
	cmd.Flags().StringVar(&sort, "sort", "", "sort field (created_at, detected_at, cost_impact_monthly, severity)")
	cmd.Flags().StringVar(&order, "order", "", "sort order (asc, desc)")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")

	return cmd
}

func newDriftGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get drift details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			d, err := apiClient.Drifts().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get drift: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(d)
			}

			fmt.Printf("ID:           %s\n", d.ID)
			fmt.Printf("Resource:     %s (%s)\n", d.ResourceID, d.ResourceType)
			fmt.Printf("Region:       %s\n", d.Region)
			fmt.Printf("Severity:     %s\n", formatSeverity(d.Severity))
			fmt.Printf("Status:       %s\n", formatStatus(d.Status))
			fmt.Printf("Cost impact:  %.2f/month\n", d.CostImpactMonthly)
			fmt.Printf("Detected:     %s by %s\n", d.DetectedAt.Format("2006-01-02 15:04:05"), d.DetectedBy)
			fmt.Printf("Alerts:       %d\n", d.AlertCount)
			if len(d.Difference) > 0 {
				fmt.Println("Difference:")
				for field, diff := range d.Difference {
					fmt.Printf("  %s: expected=%v actual=%v\n", field, diff.Expected, diff.Actual)
				}
			}
			if d.ApprovedAt != nil {
				fmt.Printf("Approved:     %s by %s (%s)\n", d.ApprovedAt.Format("2006-01-02 15:04:05"), d.ApprovedBy, d.ApprovalReason)
			}
			if d.RejectedAt != nil {
				fmt.Printf("Rejected:     %s by %s (%s)\n", d.RejectedAt.Format("2006-01-02 15:04:05"), d.RejectedBy, d.RejectionReason)
			}
			if d.ResolvedAt != nil {
				fmt.Printf("Resolved:     %s (%s)\n", d.ResolvedAt.Format("2006-01-02 15:04:05"), d.ResolvedHow)
			}
			return nil
		},
	}
}

func newDriftSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show drift summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			sum, err := apiClient.Drifts().Summary(ctx)
			if err != nil {
				return fmt.Errorf("failed to get summary: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(sum)
			}

			t := NewTable("STATUS", "COUNT")
			for status, count := range sum.ByStatus {
				t.AddRow(status, strconv.Itoa(count))
			}
			t.Render()

			fmt.Println()
			t = NewTable("SEVERITY", "COUNT")
			for severity, count := range sum.BySeverity {
				t.AddRow(severity, strconv.Itoa(count))
			}
			t.Render()

			fmt.Printf("\nOpen cost exposure: %.2f/month\n", sum.OpenCostImpactMonthly)
			return nil
		},
	}
}

func newDriftTriageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "triage <id>",
		Short: "Move a detected drift into triage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := apiClient.Drifts().Triage(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to triage drift: %w", err)
			}
			fmt.Printf("Drift %s is now %s\n", d.ID, d.Status)
			return nil
		},
	}
}

func newDriftApproveCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve an open drift for remediation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := apiClient.Drifts().Approve(context.Background(), args[0], reason)
			if err != nil {
				return fmt.Errorf("failed to approve drift: %w", err)
			}
			fmt.Printf("Drift %s is now %s\n", d.ID, d.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "approval reason (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newDriftRejectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an open drift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := apiClient.Drifts().Reject(context.Background(), args[0], reason)
			if err != nil {
				return fmt.Errorf("failed to reject drift: %w", err)
			}
			fmt.Printf("Drift %s is now %s\n", d.ID, d.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newDriftResolveCmd() *cobra.Command {
	var how string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Close a decided drift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := apiClient.Drifts().Resolve(context.Background(), args[0], how)
			if err != nil {
				return fmt.Errorf("failed to resolve drift: %w", err)
			}
			fmt.Printf("Drift %s is now %s (%s)\n", d.ID, d.Status, d.ResolvedHow)
			return nil
		},
	}

	cmd.Flags().StringVar(&how, "how", "", "resolution outcome: remediated, accepted, false_positive (required)")
	_ = cmd.MarkFlagRequired("how")

	return cmd
}
