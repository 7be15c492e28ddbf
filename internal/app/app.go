// Package app wires the journal components together and exposes the use
// cases the command line drives. Every component is built here, once, and
// handed to its consumers; nothing is a package-level singleton.
package app

import (
	"context"
	"fmt"
	"os"

	"humanjournal/internal/cipherbox"
	"humanjournal/internal/config"
	"humanjournal/internal/journal"
	"humanjournal/internal/logging"
	"humanjournal/internal/reminder"
	"humanjournal/internal/secretstore"
	"humanjournal/internal/settings"
	"humanjournal/internal/timeauth"
	"humanjournal/internal/timelock"
	"humanjournal/internal/timeoracle"
)

type App struct {
	Config    *config.Config
	Log       logging.Logger
	Secrets   secretstore.Store
	Beacon    *timeauth.DrandAuthority
	Oracle    *timeoracle.Oracle
	Lock      *timelock.Lock
	Box       *cipherbox.Box
	Entries   *journal.SQLiteRepository
	Journal   *journal.Service
	Settings  *settings.FileStore
	Reminders *reminder.Scheduler
}

// Deps overrides parts of the wiring. Zero fields use the production
// component.
type Deps struct {
	Secrets     secretstore.Store
	Authorities []timeauth.Authority
	Beacon      *timeauth.DrandAuthority
}

// New builds the application from cfg.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	return NewWithDeps(ctx, cfg, log, Deps{})
}

func NewWithDeps(ctx context.Context, cfg *config.Config, log logging.Logger, deps Deps) (*App, error) {
	if log == nil {
		log = logging.Nop{}
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	secrets := deps.Secrets
	if secrets == nil {
		var err error
		if secrets, err = openSecrets(cfg); err != nil {
			return nil, err
		}
	}

	beacon := deps.Beacon
	authorities := deps.Authorities
	if authorities == nil {
		authorities = timeauth.NewAuthorities(cfg.Authorities, false, nil)
		if cfg.Drand {
			if beacon == nil {
				beacon = timeauth.NewDefaultDrandAuthority()
			}
			authorities = append(authorities, beacon)
		}
	}

	oracle := timeoracle.New(authorities,
		timeoracle.WithQueryTimeout(cfg.QueryTimeout),
		timeoracle.WithCacheValidity(cfg.CacheValidity),
		timeoracle.WithManipulationThreshold(cfg.ManipulationThreshold),
		timeoracle.WithLogger(log.With("component", "timeoracle")),
	)

	lockOpts := []timelock.Option{
		timelock.WithStrictOffline(cfg.StrictOffline),
		timelock.WithLogger(log.With("component", "timelock")),
	}
	if beacon != nil {
		lockOpts = append(lockOpts, timelock.WithWitness(timelock.NewDrandWitness(beacon)))
	}
	lock := timelock.New(secrets, oracle, lockOpts...)

	box := cipherbox.New(secrets)

	repo, err := journal.OpenSQLite(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		Secrets:   secrets,
		Beacon:    beacon,
		Oracle:    oracle,
		Lock:      lock,
		Box:       box,
		Entries:   repo,
		Journal:   journal.NewService(repo, box, lock, journal.WithLogger(log.With("component", "journal"))),
		Settings:  settings.NewFileStore(cfg.DataDir),
		Reminders: reminder.NewScheduler(reminder.WithLogger(log.With("component", "reminder"))),
	}
	return a, nil
}

// Close stops the reminder scheduler and closes the database.
func (a *App) Close() error {
	a.Reminders.Close()
	return a.Entries.Close()
}

// openSecrets uses a file store when a directory is configured and the
// platform store otherwise.
func openSecrets(cfg *config.Config) (secretstore.Store, error) {
	if cfg.SecretsDir != "" {
		return secretstore.NewFileStore(cfg.SecretsDir)
	}
	return secretstore.NewDefault(config.AppName, "")
}
