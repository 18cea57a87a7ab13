// Package bridge forwards hub notifications to the desktop frontend as
// wails events.
package bridge

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"masterybox/internal/hub"
	"masterybox/internal/league"
)

// Frontend event names.
const (
	EventConnection      = "connection:update"
	EventSummoner        = "summoner:update"
	EventMasteryChest    = "chest:update"
	EventChampionSelect  = "champselect:update"
	EventPhase           = "phase:update"
	EventGameMode        = "gamemode:update"
	EventChampionMastery = "mastery:update"
)

// EmitFunc matches runtime.EventsEmit.
type EmitFunc func(ctx context.Context, eventName string, optionalData ...interface{})

type Bridge struct {
	hub    *hub.Hub
	emit   EmitFunc
	logger *zap.Logger

	mu     sync.Mutex
	cancel []func()
}

// New returns a bridge that emits through emit, or through the wails
// runtime when emit is nil.
func New(h *hub.Hub, emit EmitFunc, logger *zap.Logger) *Bridge {
	if emit == nil {
		emit = runtime.EventsEmit
	}
	return &Bridge{hub: h, emit: emit, logger: logger.Named("bridge")}
}

// Start subscribes to every hub topic. ctx must be the wails context handed
// to OnStartup. The returned func unsubscribes.
func (b *Bridge) Start(ctx context.Context) func() {
	send := func(name string, payload interface{}) {
		b.logger.Debug("Emitting", zap.String("event", name))
		b.emit(ctx, name, payload)
	}

	cancel := []func(){
		b.hub.OnConnectionChange(func(s league.ConnectionState) {
			send(EventConnection, map[string]interface{}{"state": s.String()})
		}),
		b.hub.OnSummonerChange(func(s league.SummonerInfo) {
			send(EventSummoner, s)
		}),
		b.hub.OnMasteryChestChange(func(c league.MasteryChestInfo) {
			send(EventMasteryChest, map[string]interface{}{
				"hasDate":        !c.NextChestDate.IsZero(),
				"nextChestDate":  c.NextChestDate,
				"earnableChests": c.EarnableChests,
			})
		}),
		b.hub.OnChampionSelectChange(func(c league.ChampionSelectInfo) {
			send(EventChampionSelect, c)
		}),
		b.hub.OnPhaseChange(func(p league.GameflowPhase) {
			send(EventPhase, map[string]interface{}{"phase": string(p)})
		}),
		b.hub.OnGameModeChange(func(m league.GameMode) {
			send(EventGameMode, map[string]interface{}{"gameMode": m.String()})
		}),
		b.hub.OnChampionMasteryChange(func(m map[int]league.ChampionInfo) {
			send(EventChampionMastery, m)
		}),
	}

	b.mu.Lock()
	b.cancel = append(b.cancel, cancel...)
	b.mu.Unlock()

	return b.Stop
}

// Stop drops every subscription made by Start.
func (b *Bridge) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	for _, c := range cancel {
		c()
	}
}
