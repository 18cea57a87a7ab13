package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"masterybox/internal/bridge"
	"masterybox/internal/cdragon"
	"masterybox/internal/config"
	"masterybox/internal/hub"
	"masterybox/internal/league"
	"masterybox/internal/procwatch"
	"masterybox/internal/supervisor"
	"masterybox/internal/tracker"
)

// App wires the process watcher, connection supervisor, tracker and hub
// together. It doubles as the wails binding for the desktop overlay.
type App struct {
	ctx    context.Context
	cfg    config.Config
	logger *zap.Logger

	store      cdragon.Store
	meta       *cdragon.Cache
	hub        *hub.Hub
	tracker    *tracker.Tracker
	supervisor *supervisor.Supervisor
	watcher    *procwatch.Watcher
	bridge     *bridge.Bridge

	windowVisible bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

// NewApp builds every component from cfg. Close releases the metadata store.
func NewApp(cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	h := hub.New(logger)
	meta := cdragon.New(cdragon.Options{
		BaseURL: cfg.CDragonBaseURL,
		Version: cfg.CDragonVersion,
		Timeout: cfg.HTTPTimeout,
	}, store, logger)
	t := tracker.New(h, meta, logger)
	sup := supervisor.New(t, h, supervisor.LCUClientFactory(logger), supervisor.Options{
		RetryInterval:    cfg.ServerRetryInterval,
		AuthPollInterval: cfg.AuthPollInterval,
	}, logger)
	watcher := procwatch.NewWatcher(procwatch.NewCommandPresence(cfg.ProcessName), cfg.ProcessPollInterval, logger)

	return &App{
		cfg:           cfg,
		logger:        logger,
		store:         store,
		meta:          meta,
		hub:           h,
		tracker:       t,
		supervisor:    sup,
		watcher:       watcher,
		bridge:        bridge.New(h, nil, logger),
		windowVisible: true,
	}, nil
}

func openStore(cfg config.Config) (cdragon.Store, error) {
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		return cdragon.OpenSQLiteStore(cfg.SQLitePath(), cfg.CDragonVersion)
	default:
		return cdragon.NewFileStore(cfg.CacheDir, cfg.CDragonVersion)
	}
}

// Run watches for the client process until ctx is cancelled. Any running
// session is torn down before Run returns.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.watcher.Run(gctx, a.supervisor.ProcessChanged)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.supervisor.Stop()
		return nil
	})

	err := g.Wait()
	a.hub.Flush()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops notification delivery and releases the metadata store.
func (a *App) Close() error {
	a.hub.Close()
	return a.store.Close()
}

// LogUpdates logs every notification. It backs the headless watch command.
func (a *App) LogUpdates() func() {
	l := a.logger.Named("updates")
	cancel := []func(){
		a.hub.OnConnectionChange(func(s league.ConnectionState) {
			l.Info("Connection", zap.Stringer("state", s))
		}),
		a.hub.OnSummonerChange(func(s league.SummonerInfo) {
			l.Info("Summoner", zap.Stringer("status", s.Status), zap.String("name", s.DisplayName),
				zap.Int64("summonerId", s.SummonerID), zap.Int("level", s.SummonerLevel))
		}),
		a.hub.OnMasteryChestChange(func(c league.MasteryChestInfo) {
			l.Info("Mastery chest", zap.Time("next", c.NextChestDate), zap.Int("earnable", c.EarnableChests))
		}),
		a.hub.OnPhaseChange(func(p league.GameflowPhase) {
			l.Info("Phase", zap.String("phase", string(p)))
		}),
		a.hub.OnGameModeChange(func(m league.GameMode) {
			l.Info("Game mode", zap.Stringer("mode", m))
		}),
		a.hub.OnChampionMasteryChange(func(m map[int]league.ChampionInfo) {
			l.Info("Champion mastery", zap.Int("champions", len(m)))
		}),
		a.hub.OnChampionSelectChange(func(c league.ChampionSelectInfo) {
			fields := []zap.Field{
				zap.Stringer("role", c.AssignedRole),
				zap.Int("team", len(c.TeamChampions)),
				zap.Int("bench", len(c.BenchedChampions)),
			}
			if champ, ok := c.SelectedChampion(); ok {
				fields = append(fields, zap.String("selected", champ.Name), zap.Stringer("ownership", champ.OwnershipStatus))
			}
			l.Info("Champion select", fields...)
		}),
	}
	return func() {
		for _, c := range cancel {
			c()
		}
	}
}

// startup is called by wails when the window is ready.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.bridge.Start(ctx)
	a.RegisterToggleHotkey()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	a.mu.Lock()
	a.cancel, a.done = cancel, done
	a.mu.Unlock()

	go func() {
		done <- a.Run(runCtx)
	}()
}

// shutdown is called by wails before the window closes.
func (a *App) shutdown(_ context.Context) {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		if err := <-done; err != nil {
			a.logger.Error("Tracker stopped with error", zap.Error(err))
		}
	}
	a.bridge.Stop()
	if err := a.Close(); err != nil {
		a.logger.Warn("Failed to close metadata store", zap.Error(err))
	}
}
