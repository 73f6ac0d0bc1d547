package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklib/internal/repositories"
	"github.com/desertthunder/tracklib/internal/services"
	"github.com/desertthunder/tracklib/internal/shared"
	"github.com/desertthunder/tracklib/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Store and Catalog are built from config on first use unless injected through [RunnerOpts].
type Runner struct {
	config     *shared.Config
	store      repositories.EntityStore
	catalog    services.Catalog
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	configured bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Store      repositories.EntityStore
	Catalog    services.Catalog
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	configured := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Catalog.Timeout()}
	}

	return &Runner{
		config:     opts.Config,
		store:      opts.Store,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		configured: configured,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, ingestCommand, trackCommand, tracksCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the config file and environment overrides named by the root flags.
// A config injected through [RunnerOpts] is kept as is.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if !r.configured {
		configPath := cmd.String("config")
		if _, err := os.Stat(configPath); err == nil {
			config, err := shared.LoadConfig(configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", configPath)
		}

		if err := r.config.ApplyEnv(cmd.String("env-file")); err != nil {
			return ctx, err
		}
		r.configured = true
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// openStore returns the injected store, or opens the configured one and prepares its schema.
// The returned func releases a store opened here and is a no-op for an injected one.
func (r *Runner) openStore(ctx context.Context) (repositories.EntityStore, func(), error) {
	if r.store != nil {
		return r.store, func() {}, nil
	}

	switch r.config.Database.Driver {
	case shared.DriverMongo:
		store, err := repositories.NewMongoStore(ctx, r.config.Database.MongoURI, r.config.Database.MongoDatabase, r.logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case shared.DriverSQLite, "":
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

		if err := shared.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		store := repositories.NewSQLStore(db, r.logger)
		return store, func() { store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown database driver %q", shared.ErrInvalidConfig, r.config.Database.Driver)
	}
}

// newCatalog returns the injected catalog or a Spotify client built from config.
func (r *Runner) newCatalog() (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	creds := r.config.Credentials.Spotify
	session, err := services.NewTokenSession(creds.ClientID, creds.ClientSecret,
		services.WithTokenURL(creds.TokenURL),
		services.WithSessionHTTPClient(r.httpClient),
		services.WithSessionLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}

	catalog, err := services.NewSpotifyService(session,
		services.WithBaseURL(creds.APIURL),
		services.WithHTTPClient(r.httpClient),
		services.WithRateLimit(r.config.Catalog.RequestsPerSecond),
		services.WithMaxAttempts(r.config.Catalog.MaxAttempts),
		services.WithLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}

	r.catalog = catalog
	return catalog, nil
}

// newPipeline wires the catalog and store into an ingestion pipeline.
func (r *Runner) newPipeline(ctx context.Context) (*tasks.Pipeline, func(), error) {
	catalog, err := r.newCatalog()
	if err != nil {
		return nil, nil, err
	}

	store, closeStore, err := r.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	resolver := tasks.NewArtistResolver(store, tasks.DefaultResolveWorkers, r.logger)
	return tasks.NewPipeline(catalog, store, resolver, r.logger), closeStore, nil
}

// newLookupPipeline is a pipeline for read-only commands; it needs no catalog credentials.
func (r *Runner) newLookupPipeline(ctx context.Context) (*tasks.Pipeline, func(), error) {
	store, closeStore, err := r.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tasks.NewPipeline(r.catalog, store, nil, r.logger), closeStore, nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
