package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Health(context.Background()); err != nil {
				return fmt.Errorf("server not ready: %w", err)
			}
			fmt.Printf("Server %s is ready\n", viper.GetString("server_url"))
			return nil
		},
	}
}
