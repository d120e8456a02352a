package database

import (
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cuaderno/config"
	"cuaderno/entities"
)

// Models is every table managed by AutoMigrate.
func Models() []any {
	return []any{
		&entities.Parcela{},
		&entities.Actividad{},
		&entities.UserSubscription{},
		&entities.WeatherAlert{},
		&entities.LabelScan{},
	}
}

// Open connects to Postgres when DATABASE_URL is set and to SQLite otherwise.
func Open(cfg config.AppConfig, log *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if !cfg.IsProduction() {
		gcfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	var (
		db  *gorm.DB
		err error
	)
	if cfg.UsesPostgres() {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		log.Info("database connected", zap.String("driver", "postgres"))
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DBPath), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info("database connected", zap.String("driver", "sqlite"), zap.String("path", cfg.DBPath))
	}
	return db, nil
}

// Migrate enables PostGIS where available, then runs AutoMigrate.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if db.Dialector.Name() == "postgres" {
		// PostGIS is optional; area falls back to Go when missing.
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
			log.Warn("postgis extension unavailable", zap.Error(err))
		}
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := dropOrphanActividades(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// dropOrphanActividades soft-deletes actividades whose parcela no longer
// exists or is deleted. Older databases did not cascade parcela deletes.
func dropOrphanActividades(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.Exec(`
UPDATE actividades SET deleted_at = ?
WHERE deleted_at IS NULL AND parcela_id NOT IN (
    SELECT id FROM parcelas WHERE deleted_at IS NULL
)`, tx.NowFunc()).Error
	})
}

// HasPostGIS reports whether ST_Area is callable on this connection.
func HasPostGIS(db *gorm.DB) bool {
	if db.Dialector.Name() != "postgres" {
		return false
	}
	var n int64
	if err := db.Raw(`SELECT count(*) FROM pg_extension WHERE extname = 'postgis'`).Scan(&n).Error; err != nil {
		return false
	}
	return n > 0
}
