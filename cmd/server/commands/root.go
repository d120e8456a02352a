package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cuaderno/config"
	"cuaderno/pkg/logger"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cuaderno",
	Short: "Cuaderno de campo GPS: API for parcelas, actividades and treatments",
	Long: `cuaderno serves the field notebook API (parcelas, actividades, SIGPAC,
weather, label OCR and subscriptions). Without a subcommand it runs serve.

Configuration comes from the environment and an optional .env file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// Execute runs the command tree; errors are printed once here.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// bootstrap loads the config and builds the logger shared by every command.
func bootstrap() (config.AppConfig, *zap.Logger, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}
