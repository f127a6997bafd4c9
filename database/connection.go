// database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gewnthar/rfiarchive/config"
	_ "github.com/go-sql-driver/mysql" // MariaDB driver
	_ "modernc.org/sqlite"             // local archive and tests
)

// Open opens and pings the archive database described by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		// One writer; the archive is only ever written sequentially.
		db.SetMaxOpenConns(1)
	default:
		// DSN: username:password@protocol(address)/dbname?param=value
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
