// Package supervisor bridges "client process is up" to "control API is
// usable": it waits for the server, attaches the tracker, pumps the event
// stream and tears everything down when the process goes away.
package supervisor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"masterybox/internal/hub"
	"masterybox/internal/lcu"
	"masterybox/internal/league"
	"masterybox/internal/procwatch"
	"masterybox/internal/tracker"
)

type Options struct {
	RetryInterval    time.Duration
	AuthPollInterval time.Duration
}

type Supervisor struct {
	tracker   *tracker.Tracker
	newClient ClientFactory
	sm        *StateMachine
	opts      Options
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(t *tracker.Tracker, h *hub.Hub, newClient ClientFactory, opts Options, logger *zap.Logger) *Supervisor {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	if opts.AuthPollInterval <= 0 {
		opts.AuthPollInterval = 100 * time.Millisecond
	}

	s := &Supervisor{
		tracker:   t,
		newClient: newClient,
		sm:        NewStateMachine(),
		opts:      opts,
		logger:    logger.Named("supervisor"),
	}
	s.sm.OnTransition(func(from, to league.ConnectionState) {
		s.logger.Info("Connection state changed", zap.Stringer("from", from), zap.Stringer("to", to))
		h.PublishConnection(to)
	})
	return s
}

// State returns the current connection state.
func (s *Supervisor) State() league.ConnectionState {
	return s.sm.Current()
}

// WaitForState blocks until the supervisor reaches target or ctx ends.
func (s *Supervisor) WaitForState(ctx context.Context, target league.ConnectionState) error {
	return s.sm.WaitForState(ctx, target)
}

// ProcessChanged starts a session when the process comes up and tears it
// down when it goes away. It is the procwatch.Watcher callback.
func (s *Supervisor) ProcessChanged(ctx context.Context, p procwatch.Process) {
	if !p.Running {
		s.Stop()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		s.run(sessionCtx, p)
	}()
}

// Stop cancels the running session, if any, and waits for teardown.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Supervisor) run(ctx context.Context, p procwatch.Process) {
	defer s.transition(league.Disconnected)

	for {
		s.transition(league.WaitingForServer)

		client, err := s.newClient(p)
		if err != nil {
			s.logger.Error("Cannot build client from process", zap.Error(err))
			if !sleepContext(ctx, s.opts.RetryInterval) {
				return
			}
			continue
		}

		if !s.waitForServer(ctx, client) {
			return
		}

		s.transition(league.Connected)
		s.tracker.Attach(client)
		s.serve(ctx, client)
		s.tracker.Detach()

		if ctx.Err() != nil {
			return
		}
		// The stream ended but the process is still up.
		if !sleepContext(ctx, s.opts.RetryInterval) {
			return
		}
	}
}

func (s *Supervisor) waitForServer(ctx context.Context, client Client) bool {
	ticker := time.NewTicker(s.opts.RetryInterval)
	defer ticker.Stop()

	for {
		err := client.Ping(ctx)
		switch {
		case err == nil:
			return true
		case ctx.Err() != nil:
			return false
		case lcu.IsConnRefused(err):
			s.logger.Info("Waiting for client server")
		default:
			s.logger.Error("Client server probe failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// serve runs one connected session until ctx ends or the stream closes.
func (s *Supervisor) serve(ctx context.Context, client Client) {
	stream, err := client.OpenEventStream(ctx)
	if err != nil {
		s.logger.Error("Failed to open event stream", zap.Error(err))
		return
	}

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		for ev := range stream.Events() {
			s.tracker.HandleEvent(ctx, ev)
		}
	}()

	s.awaitLogin(ctx, stream)

	select {
	case <-ctx.Done():
	case <-stream.Done():
		s.logger.Info("Event stream ended", zap.Error(stream.Err()))
	}

	_ = stream.Close()
	<-pumped
}

// awaitLogin repeats the handshake while the summoner is logged in but
// not yet authorized, or while probes fail.
func (s *Supervisor) awaitLogin(ctx context.Context, stream Stream) {
	ticker := time.NewTicker(s.opts.AuthPollInterval)
	defer ticker.Stop()

	for {
		ok, err := s.tracker.Login(ctx)
		if ok {
			return
		}
		if err != nil {
			s.logger.Warn("Login handshake failed", zap.Error(err))
		} else if s.tracker.Summoner().Status != league.StatusLoggedInUnauthorized {
			// Not logged in: the login-session event will finish the job.
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-stream.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) transition(to league.ConnectionState) {
	if err := s.sm.TransitionTo(to); err != nil {
		s.logger.Debug("Skipping transition", zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
