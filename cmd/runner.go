package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auxd/internal/auth"
	"github.com/desertthunder/auxd/internal/repositories"
	"github.com/desertthunder/auxd/internal/sessions"
	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/spotify"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
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
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the Runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, serveCommand, sessionCommand, libraryCommand, searchCommand, monitorCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// deps is the service graph behind every command that touches the
// database or the upstream API. Built per command invocation, torn
// down with Close.
type deps struct {
	config   *shared.Config
	db       *sql.DB
	accounts *repositories.AccountRepository
	store    *repositories.SessionRepository
	auth     *auth.Service
	actions  *sessions.Actions
}

func (d *deps) Close() error {
	return d.db.Close()
}

// buildDeps loads config (falling back to the Runner's), opens the
// database, and wires the repositories, refresh coordinator, auth
// service, and session action layer.
func (r *Runner) buildDeps(configPath string) (*deps, error) {
	config := r.config
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			loaded, err := shared.LoadConfig(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
			config = loaded
		}
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	accounts := repositories.NewAccountRepository(db)
	store := repositories.NewSessionRepository(db)

	refresher := spotify.NewRefresher(accounts,
		config.Credentials.Spotify.ClientID,
		config.Credentials.Spotify.ClientSecret,
		spotify.WithRefreshHTTPClient(r.httpClient),
	)
	coordinator := auth.NewCoordinator(refresher, accounts, auth.CoordinatorOpts{
		CacheWindow:   config.Reauth.CacheWindow(),
		BatchLifespan: config.Reauth.BatchLifespan(),
		Logger:        r.logger,
	})
	factory := spotify.NewFactory(accounts, spotify.WithHTTPClient(r.httpClient))
	authService := auth.NewService(factory, coordinator, auth.ServiceOpts{
		Timeout: config.Reauth.Timeout(),
		Logger:  r.logger,
	})

	catalog := spotify.NewAppTokenSource(
		config.Credentials.Spotify.ClientID,
		config.Credentials.Spotify.ClientSecret,
		spotify.WithHTTPClient(r.httpClient),
	)

	actions := sessions.NewActions(store, authService, sessions.ActionsOpts{
		Catalog:    catalog,
		MaxPerHost: config.Session.MaxPerHost,
		Logger:     r.logger,
	})

	return &deps{
		config:   config,
		db:       db,
		accounts: accounts,
		store:    store,
		auth:     authService,
		actions:  actions,
	}, nil
}

// resolveHost returns the host id to operate as. An explicit flag wins;
// otherwise the single linked account is used. Ambiguity is an error
// rather than a guess.
func (r *Runner) resolveHost(d *deps, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	accounts, err := d.accounts.List(nil)
	if err != nil {
		return "", fmt.Errorf("failed to list accounts: %w", err)
	}

	switch len(accounts) {
	case 0:
		return "", fmt.Errorf("%w: no linked account, run 'auxd auth login' first", shared.ErrCredentialMissing)
	case 1:
		return accounts[0].HostID(), nil
	default:
		return "", fmt.Errorf("%w: multiple linked accounts, pass --host", shared.ErrInvalidInput)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
