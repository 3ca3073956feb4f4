package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spautofy/internal/repositories"
	"github.com/desertthunder/spautofy/internal/services"
	"github.com/desertthunder/spautofy/internal/shared"
	"github.com/desertthunder/spautofy/internal/ui"
	"github.com/urfave/cli/v3"
)

// StoreOpener selects the [repositories.CredentialStore] for a configuration.
type StoreOpener func(ctx context.Context, config *shared.Config) (repositories.CredentialStore, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	configPath  string
	httpClient  *http.Client
	endpoints   services.Endpoints
	logger      *log.Logger
	output      io.Writer
	openBrowser func(url string) error
	openStore   StoreOpener
	debug       bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	HTTPClient  *http.Client
	Endpoints   services.Endpoints // zero value means the Spotify production endpoints
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(url string) error
	OpenStore   StoreOpener
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.OpenStore == nil {
		opts.OpenStore = repositories.OpenStore
	}

	return &Runner{
		httpClient:  opts.HTTPClient,
		endpoints:   opts.Endpoints,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
		openStore:   opts.OpenStore,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authorizeCommand, initCommand, forgetCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the file named by --config-path, printing the expected format when it cannot be used.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	r.configPath = cmd.String("config-path")

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		r.writePlain("%s\n\n", ui.Failure("%v", err))
		r.writePlain("%s", shared.ConfigUsage(r.configPath))
		return nil, err
	}

	if !r.debug {
		if err := shared.SetLogLevel(r.logger, config.LogLevel); err != nil {
			r.logger.Warn("ignoring log level", "error", err)
		}
	}

	r.logger.Debug("configuration loaded", "path", r.configPath, "address", config.BindAddress(), "token_store", config.TokenStore)
	return config, nil
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
