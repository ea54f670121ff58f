package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	serverURL  string
)

// Execute runs the CLI.
func Execute() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	envServer := os.Getenv("EXPLAINIT_SERVER")
	if envServer == "" {
		envServer = "http://localhost:3000"
	}

	cmd := &cobra.Command{
		Use:          "explainit",
		Short:        "ExplainIt short-video feed backend and headless client",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides config)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&serverURL, "server", envServer, "backend base URL for client commands")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewVideosCmd(&serverURL))
	cmd.AddCommand(NewGenerateCmd(&serverURL))
	cmd.AddCommand(NewLoginCmd(&serverURL))
	cmd.AddCommand(NewLogoutCmd(&serverURL))
	cmd.AddCommand(NewQuizCmd(&serverURL))
	cmd.AddCommand(NewLeaderboardCmd(&serverURL))
	return cmd
}
