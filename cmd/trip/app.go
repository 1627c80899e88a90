package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pbaille/trip/internal/assistant"
	"github.com/pbaille/trip/internal/config"
	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
	"github.com/pbaille/trip/internal/logging"
	"github.com/pbaille/trip/internal/remote"
	"github.com/pbaille/trip/internal/store"
	"github.com/pbaille/trip/internal/syncer"
)

const geocodeCacheTTL = 30 * 24 * time.Hour

// recommender suggests extra places for a day.
type recommender interface {
	Recommend(ctx context.Context, day domain.Day, spotNames []string) (string, error)
}

// app bundles what a command needs: the table the itinerary lives in, the
// coordinator over it and the optional assistant.
type app struct {
	cfg         config.Config
	log         *zap.Logger
	coord       *syncer.Coordinator
	geocoder    syncer.Geocoder
	recommender recommender
	closers     []func() error
}

type appOptions struct {
	logToFile bool
	onWrite   func(op string, err error)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if dbPath != "" {
		p, err := config.ExpandPath(dbPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("db path: %w", err)
		}
		cfg.DBPath = p
	}
	if remoteURL != "" {
		cfg.RemoteURL = remoteURL
	}
	return cfg, nil
}

func getStore(path string) (*store.Store, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(path)
}

func newLogger(cfg config.Config, toFile bool) (*zap.Logger, error) {
	path := ""
	if toFile {
		path = cfg.LogFile
	}
	return logging.New(cfg.LogLevel, path)
}

// openApp wires the coordinator to the remote server when one is configured
// and to the local database otherwise, then loads the itinerary.
func openApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg, opts.logToFile)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	var table syncer.Table
	var client *remote.Client
	if cfg.RemoteURL != "" {
		client, err = remote.NewClient(cfg.RemoteURL, cfg.AuthSecret)
		if err != nil {
			return nil, err
		}
		table = client
	} else {
		s, err := getStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		table = s
	}

	a.wireAssistant(ctx, client)

	a.coord = syncer.New(table, &itinerary.Store{}, syncer.Options{
		Debounce: cfg.ReorderDebounce,
		Logger:   log,
		OnWrite:  opts.onWrite,
	})
	return a, nil
}

// wireAssistant prefers a local API key and falls back to the remote
// server's endpoints so thin clients need no key of their own.
func (a *app) wireAssistant(ctx context.Context, client *remote.Client) {
	ai, err := assistant.New(a.cfg.AnthropicKey, a.cfg.AnthropicModel)
	if err != nil {
		if client != nil {
			a.geocoder = client
			a.recommender = client
		} else {
			a.log.Debug("assistant disabled", zap.Error(err))
		}
		return
	}

	a.geocoder = assistant.NewCachedGeocoder(ai, a.geocodeCache(ctx))
	a.recommender = ai
}

func (a *app) geocodeCache(ctx context.Context) assistant.Cache {
	if a.cfg.RedisURL == "" {
		return assistant.NewMemoryCache()
	}
	rc, err := assistant.NewRedisCache(ctx, a.cfg.RedisURL, geocodeCacheTTL)
	if err != nil {
		a.log.Warn("redis unavailable, caching in memory", zap.Error(err))
		return assistant.NewMemoryCache()
	}
	a.closers = append(a.closers, rc.Close)
	return rc
}

// load fetches the itinerary, seeding an empty table.
func (a *app) load(ctx context.Context) error {
	seeded, err := a.coord.Load(ctx)
	if err != nil {
		return err
	}
	if seeded {
		fmt.Println("Seeded the default itinerary.")
	}
	return nil
}

// close writes any pending reorder and releases resources.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := a.coord.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("save order: %w", err))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}

// resolve finds the spot whose id equals or uniquely starts with prefix.
func (a *app) resolve(prefix string) (domain.Spot, error) {
	return resolveID(a.coord.Spots().Spots(), prefix)
}

func resolveID(spots []domain.Spot, prefix string) (domain.Spot, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return domain.Spot{}, fmt.Errorf("spot id is required")
	}

	var matches []domain.Spot
	for _, s := range spots {
		if s.ID == prefix {
			return s, nil
		}
		if strings.HasPrefix(s.ID, prefix) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Spot{}, fmt.Errorf("spot not found: %s", prefix)
	case 1:
		return matches[0], nil
	}
	return domain.Spot{}, fmt.Errorf("spot id %q is ambiguous (%d matches)", prefix, len(matches))
}
