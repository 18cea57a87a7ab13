// Package procwatch polls for the League client process and reports when
// it starts or stops.
package procwatch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultExecutable is the UX process that carries the API credentials.
const DefaultExecutable = "LeagueClientUx.exe"

// installDirFlag distinguishes the real client from helper processes
// sharing its name.
const installDirFlag = "--install-directory="

type Process struct {
	Running     bool
	CommandLine string
}

// Presence looks up the client process once.
type Presence interface {
	Lookup(ctx context.Context) (Process, error)
}

type Watcher struct {
	presence Presence
	interval time.Duration
	logger   *zap.Logger
}

func NewWatcher(presence Presence, interval time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{
		presence: presence,
		interval: interval,
		logger:   logger.Named("procwatch"),
	}
}

// Run polls until ctx is cancelled, calling onChange only when the
// running state flips. A process already running at start counts as a
// flip. Lookup errors count as not running for that cycle.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, Process)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	running := false
	for {
		proc, err := w.presence.Lookup(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Warn("Process lookup failed", zap.Error(err))
			proc = Process{}
		}

		if proc.Running != running {
			running = proc.Running
			w.logger.Info("Client process changed", zap.Bool("running", running))
			onChange(ctx, proc)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
