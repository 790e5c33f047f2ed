package config

import (
	"fmt"

	"github.com/avast/retry-go"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection, retrying while the
// database comes up (containerized deployments start both at once).
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	var db *sqlx.DB

	err := retry.Do(
		func() error {
			var err error
			db, err = sqlx.Connect("postgres", cfg.Database.GetDSN())
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Attempts(cfg.Database.RetryConnAttempts),
		retry.Delay(cfg.Database.RetryConnDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	return db, nil
}
