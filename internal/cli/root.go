package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/driftboard/driftboard/pkg/client"
)

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	actorID      string
	actorEmail   string
	apiClient    *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "driftboard",
	Short: "driftboard CLI - drift lifecycle dashboard",
	Long: `driftboard CLI provides command-line access to the driftboard server
for reviewing detected configuration drifts, recording triage and
approval decisions, and inspecting alerts and audit history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initClient()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.driftboard/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "", "actor ID recorded on decisions")
	rootCmd.PersistentFlags().StringVar(&actorEmail, "actor-email", "", "actor email recorded on decisions")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("actor_id", rootCmd.PersistentFlags().Lookup("actor"))
	_ = viper.BindPFlag("actor_email", rootCmd.PersistentFlags().Lookup("actor-email"))

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newDriftCmd())
	rootCmd.AddCommand(newAlertCmd())
	rootCmd.AddCommand(newAuditCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		configDir := home + "/.driftboard"
		_ = os.MkdirAll(configDir, 0700)
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DRIFTBOARD")
	viper.AutomaticEnv()

	viper.SetDefault("server_url", "http://localhost:8080")
	viper.SetDefault("output", "table")

	_ = viper.ReadInConfig()
}

func initClient() error {
	url := viper.GetString("server_url")
	if serverURL != "" {
		url = serverURL
	}

	apiClient = client.NewClient(client.Config{
		BaseURL:    url,
		ActorID:    viper.GetString("actor_id"),
		ActorEmail: viper.GetString("actor_email"),
	})
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" && outputFormat != "table" {
		return outputFormat
	}
	return viper.GetString("output")
}
