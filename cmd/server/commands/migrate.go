package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cuaderno/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	Long: `Creates or updates the tables (gorm AutoMigrate), enables the PostGIS
extension on Postgres when available and soft-deletes orphan actividades.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}
	log.Info("migrations applied", zap.Bool("postgis", database.HasPostGIS(db)))
	return nil
}
