package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dhunjam/internal/console"
	"github.com/desertthunder/dhunjam/internal/repositories"
	"github.com/desertthunder/dhunjam/internal/services"
	"github.com/desertthunder/dhunjam/internal/session"
	"github.com/desertthunder/dhunjam/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The admin API client and the session store are built on first use so commands that need neither
// (setup, help) never open the database or configure HTTP.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	admin      services.AdminAPI
	manager    *session.Manager
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Admin      services.AdminAPI
	Sessions   *session.Manager
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		admin:      opts.Admin,
		manager:    opts.Sessions,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, whoamiCommand, settingsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration for every command: the TOML file named by --config (defaults when it does
// not exist), then the .env file and DHUNJAM_* environment overrides.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if err := r.loadConfig(cmd.String("config"), cmd.String("env-file")); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// After releases the session database if a command opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close closes the session database, if open.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.manager = nil
	return err
}

func (r *Runner) loadConfig(path, dotenv string) error {
	config := shared.DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if config, err = shared.LoadConfig(path); err != nil {
				return err
			}
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	if err := shared.ApplyEnv(config, dotenv); err != nil {
		return err
	}

	r.config = config
	r.configPath = path
	r.logger.Debug("configuration loaded", "api", config.API.BaseURL, "db", config.Database.Path)
	return nil
}

// adminAPI returns the admin API client, building it from config on first use.
func (r *Runner) adminAPI() services.AdminAPI {
	if r.admin != nil {
		return r.admin
	}

	if r.api == nil {
		client := r.httpClient
		if client == nil {
			client = &http.Client{Timeout: r.config.API.Timeout}
		}
		r.api = services.NewAPIService(r.config.API.BaseURL, client).
			WithRateLimit(r.config.API.RateLimit, r.config.API.Burst)
	}

	r.admin = services.NewAdminService(r.api, r.logger)
	return r.admin
}

// sessions returns the session manager, opening the session database on first use.
func (r *Runner) sessions() (*session.Manager, error) {
	if r.manager != nil {
		return r.manager, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	r.db = db
	r.manager = session.NewManager(repositories.NewSessionRepository(db), r.logger)
	return r.manager, nil
}

// loadSettings signs in from the stored session and reads the admin settings once.
func (r *Runner) loadSettings(ctx context.Context) (*console.Settings, error) {
	mgr, err := r.sessions()
	if err != nil {
		return nil, err
	}

	c := console.NewSettings(r.adminAPI(), mgr)
	task, err := c.Load(ctx)
	if err != nil {
		return nil, notSignedIn(err)
	}

	res := task(ctx)
	out := c.Apply(res)
	if res.Err != nil {
		if out.Unauthorized {
			if err := mgr.Clear(ctx); err != nil {
				r.logger.Warn("failed to clear rejected session", "error", err)
			}
			return nil, notSignedIn(res.Err)
		}
		return nil, fmt.Errorf("%s: %w", out.Notice.Text, res.Err)
	}
	return c, nil
}

func notSignedIn(err error) error {
	if errors.Is(err, shared.ErrTokenExpired) {
		return fmt.Errorf("%w: run 'dhunjam login' to sign in again", err)
	}
	return fmt.Errorf("%w: run 'dhunjam login' first", err)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
