package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/recallo/recallo-cli/internal/adapters/httpapi"
	"github.com/recallo/recallo-cli/internal/adapters/render/transcript"
	tomlrepo "github.com/recallo/recallo-cli/internal/adapters/repo/toml"
	chainstore "github.com/recallo/recallo-cli/internal/adapters/secrets/chain"
	boltstore "github.com/recallo/recallo-cli/internal/adapters/storage/bbolt"
	"github.com/recallo/recallo-cli/internal/application"
	"github.com/recallo/recallo-cli/internal/config"
	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/observability"
	"github.com/recallo/recallo-cli/internal/ports"
	"github.com/spf13/viper"
)

// app is wired on first use so that flags are parsed before the config is
// read and commands like version never touch the filesystem.
type app struct {
	v        *viper.Viper
	cfg      config.Config
	logger   observability.FileLogger
	profiles *tomlrepo.Repository
	secrets  ports.SecretStore
	engine   *application.SessionEngine
	render   func(application.View, transcript.RenderOptions) (string, error)
	now      func() time.Time

	wired   bool
	closers []func() error
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		render: transcript.Render,
		now:    time.Now,
	}
}

func (a *app) wire(ctx context.Context) error {
	if a.wired {
		return nil
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logger, err := observability.New(cfg.Log.Debug, cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}
	a.logger = logger
	a.closers = append(a.closers, logger.Close)
	log := logger.Logger.With("backend", string(cfg.Backend))

	profiles, err := tomlrepo.NewRepository(cfg.Storage.ProfilePath, ports.SystemClock{})
	if err != nil {
		return fmt.Errorf("wire profile repository: %w", err)
	}
	a.profiles = profiles

	secrets, err := chainstore.NewPassFirstWithFileFallback(cfg.Storage.SecretsPath)
	if err != nil {
		return fmt.Errorf("wire secret store chain: %w", err)
	}
	a.secrets = secrets

	deps := application.Dependencies{
		Identity: profiles,
		Clock:    ports.SystemClock{},
		IDs:      ports.UUIDGenerator{},
		Logger:   log.With("component", "engine"),
	}
	engineCfg := application.EngineConfig{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		AllowedTypes:   cfg.Upload.AllowedTypes,
		AskTimeout:     cfg.Ask.Timeout,
	}

	switch cfg.Backend {
	case config.BackendLocal:
		store, err := boltstore.Open(cfg.Storage.DatabasePath, ports.SystemClock{}, ports.UUIDGenerator{})
		if err != nil {
			return fmt.Errorf("wire local store: %w", err)
		}
		a.closers = append(a.closers, store.Close)

		deps.Conversations = store
		deps.Assistant = boltstore.NewAssistant(store)
		deps.Uploads = boltstore.NewUploads(store, boltstore.UploadLimits{
			MaxBytes:     cfg.Upload.MaxBytes,
			AllowedTypes: cfg.Upload.AllowedTypes,
		})
		engineCfg.ServerAssignsConversation = true
	default:
		client, err := httpapi.NewClient(httpapi.Options{
			BaseURL:        cfg.API.BaseURL,
			RequestTimeout: cfg.API.RequestTimeout,
			Tokens:         secrets,
			TokenKey:       a.tokenKey(ctx),
			Logger:         log.With("component", "httpapi"),
		})
		if err != nil {
			return fmt.Errorf("wire backend client: %w", err)
		}

		deps.Conversations = client
		deps.Assistant = client
		deps.Uploads = client
	}

	a.engine = application.NewSessionEngine(deps, engineCfg)
	a.closers = append(a.closers, func() error {
		a.engine.Close()
		return nil
	})
	a.wired = true

	log.Debug("app wired", "config_file", cfg.File)
	return nil
}

func (a *app) tokenKey(ctx context.Context) string {
	profile, err := a.profiles.Get(ctx)
	if err != nil {
		return ""
	}
	return profile.SecretKey()
}

func (a *app) renderOptions() transcript.RenderOptions {
	return transcript.RenderOptions{Markdown: a.cfg.Render.Markdown}
}

// explain replaces err's text with the message the engine shows users while
// keeping err reachable through errors.Is.
func (a *app) explain(err error) error {
	if err == nil || a.engine == nil {
		return err
	}
	return &userError{message: a.engine.Describe(err), err: err}
}

// Close releases the engine, the local store and the log file in reverse
// wiring order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.wired = false
	return errors.Join(errs...)
}

type userError struct {
	message string
	err     error
}

func (e *userError) Error() string {
	return e.message
}

func (e *userError) Unwrap() error {
	return e.err
}

func openPickedFile(path string) (domain.PickedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.PickedFile{}, fmt.Errorf("read file: %w", err)
	}
	if info.IsDir() {
		return domain.PickedFile{}, fmt.Errorf("read file: %s is a directory", path)
	}

	return domain.PickedFile{
		Name: info.Name(),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
