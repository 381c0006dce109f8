package commands

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/teranos/cadence/config"
	"github.com/teranos/cadence/db"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/logger"
)

// loadConfig loads configuration, honoring the root --config flag when set;
// otherwise it falls back to the cached defaults/file/env lookup.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// openDatabase opens and migrates the configured database. An explicit
// path overrides the one loaded from configuration.
func openDatabase(cmd *cobra.Command, pathOverride string) (*sql.DB, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load configuration")
	}

	path := cfg.Database.Path
	if pathOverride != "" {
		path = pathOverride
	}

	database, err := db.Open(path, logger.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open database")
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}

	return database, cfg, nil
}
