// Package database opens the MySQL store holding accounts, roles and
// their links.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/YildirimDemir/social-platform/internal/config"
)

// Open connects using the DB_* fields of cfg and verifies the connection
// before handing the pool out. A service that cannot reach its account
// store should fail at startup, not on the first request.
func Open(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// dsn builds the driver connection string. parseTime makes the timestamp
// columns scan into time.Time, and loc pins them to UTC so token expiries
// and TTL math never see local time.
func dsn(cfg config.Config) string {
	creds := cfg.DBUser
	if cfg.DBPass != "" {
		creds += ":" + cfg.DBPass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		creds, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
