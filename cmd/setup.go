package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklib/internal/repositories"
	"github.com/desertthunder/tracklib/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the template config to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET in .env)\n")
	return nil
}

// SetupDatabase runs sqlite migrations or creates mongo indexes, depending on the configured driver.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database

	if cfg.Driver == shared.DriverMongo {
		r.logger.Info("initializing mongo indexes", "database", cfg.MongoDatabase)

		store, err := repositories.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, r.logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		r.writePlain("✓ Indexes ready in %s\n", cfg.MongoDatabase)
		return nil
	}

	r.logger.Info("initializing database", "path", cfg.Path)

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.MigrationVersion(ctx, db)
	if err != nil {
		return err
	}
	r.writePlain("✓ Database %s at schema version %d\n", cfg.Path, version)
	return nil
}

// SetupRollback rolls back the most recent sqlite migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	if cfg.Driver == shared.DriverMongo {
		return fmt.Errorf("%w: rollback applies to the sqlite driver only", shared.ErrInvalidArgument)
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return err
	}

	version, err := shared.MigrationVersion(ctx, db)
	if err != nil {
		return err
	}
	r.logger.Info("rolled back migration", "version", version)
	r.writePlain("✓ Database %s at schema version %d\n", cfg.Path, version)
	return nil
}
