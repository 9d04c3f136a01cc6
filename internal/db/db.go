package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stellar/internal/config"
)

// Open returns a connected GORM DB instance for the configured driver.
// The embedded driver runs in WAL mode with foreign keys enforced; the
// client/server driver relies on the pool limits below.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var (
		gormDB *gorm.DB
		err    error
	)

	switch cfg.DBDriver {
	case "sqlite":
		dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", cfg.SQLitePath)
		gormDB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	case "mysql":
		gormDB, err = gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported db driver: %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying db: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// Single-writer engine: one connection avoids SQLITE_BUSY churn.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpen)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdle)
		sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return gormDB, nil
}
