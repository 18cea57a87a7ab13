// Package tracker owns the derived client state. It routes inbound events
// to the reducers, runs the refresh operations and publishes every change
// through the hub.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"masterybox/internal/cdragon"
	"masterybox/internal/hub"
	"masterybox/internal/league"
)

// API is the part of the control API client the tracker needs.
type API interface {
	GetJSON(ctx context.Context, endpoint string, out any) error
	IsConnected(ctx context.Context) (bool, error)
	IsAuthorized(ctx context.Context) (bool, error)
}

// Metadata resolves queue descriptions and champion positions.
type Metadata interface {
	Describe(ctx context.Context, queueID int) (cdragon.Queue, error)
	ChampionsByRole(ctx context.Context, role league.Role) ([]int, error)
}

var (
	// ErrNotConnected is returned by refresh operations without a client.
	ErrNotConnected = errors.New("tracker: no client attached")
	// ErrNotLoggedIn is returned when an operation needs the summoner id.
	ErrNotLoggedIn = errors.New("tracker: summoner not logged in")
)

type state struct {
	summoner    league.SummonerInfo
	phase       league.GameflowPhase
	gameMode    league.GameMode
	champSelect league.ChampionSelectInfo
	champions   map[int]league.ChampionInfo
	chest       league.MasteryChestInfo
}

func defaultState() state {
	return state{
		summoner:  league.NewSummonerInfo(league.StatusNotChecked),
		phase:     league.PhaseNone,
		gameMode:  league.GameModeNone,
		champions: map[int]league.ChampionInfo{},
	}
}

type Tracker struct {
	hub    *hub.Hub
	meta   Metadata
	logger *zap.Logger
	now    func() time.Time

	// updateMu serializes every apply-then-publish step.
	updateMu sync.Mutex

	mu  sync.RWMutex
	api API
	st  state
}

func New(h *hub.Hub, meta Metadata, logger *zap.Logger) *Tracker {
	return &Tracker{
		hub:    h,
		meta:   meta,
		logger: logger.Named("tracker"),
		now:    time.Now,
		st:     defaultState(),
	}
}

// Attach installs the client for a new session and resets all derived
// state before any event of that session is handled.
func (t *Tracker) Attach(api API) {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	t.mu.Lock()
	t.api = api
	t.st = defaultState()
	t.mu.Unlock()

	t.logger.Debug("Client attached, state reset")
}

// Detach drops the client and publishes the default state.
func (t *Tracker) Detach() {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	t.mu.Lock()
	t.api = nil
	t.st = defaultState()
	st := t.st
	t.mu.Unlock()

	t.hub.PublishSummoner(st.summoner)
	t.hub.PublishPhase(st.phase)
	t.hub.PublishGameMode(st.gameMode)
	t.hub.PublishChampionSelect(st.champSelect)
	t.hub.PublishMasteryChest(st.chest)
	t.hub.PublishChampionMastery(st.champions)

	t.logger.Debug("Client detached, state reset")
}

func (t *Tracker) Summoner() league.SummonerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st.summoner
}

func (t *Tracker) Phase() league.GameflowPhase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st.phase
}

func (t *Tracker) GameMode() league.GameMode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st.gameMode
}

func (t *Tracker) ChampionSelect() league.ChampionSelectInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st.champSelect.Clone()
}

func (t *Tracker) ChampionMastery() map[int]league.ChampionInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return league.CloneChampions(t.st.champions)
}

func (t *Tracker) MasteryChest() league.MasteryChestInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st.chest
}

// ChampionsForRole lists cached champions played in role, by mastery
// points descending then name. RoleAny returns every champion.
func (t *Tracker) ChampionsForRole(ctx context.Context, role league.Role) ([]league.ChampionInfo, error) {
	champions := t.ChampionMastery()

	var out []league.ChampionInfo
	if role == league.RoleAny {
		out = make([]league.ChampionInfo, 0, len(champions))
		for _, c := range champions {
			out = append(out, c)
		}
	} else {
		if t.meta == nil {
			return nil, fmt.Errorf("champions for %s: no metadata source", role)
		}
		ids, err := t.meta.ChampionsByRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("champions for %s: %w", role, err)
		}
		for _, id := range ids {
			if c, ok := champions[id]; ok {
				out = append(out, c)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MasteryPoints != out[j].MasteryPoints {
			return out[i].MasteryPoints > out[j].MasteryPoints
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (t *Tracker) client() (API, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.api == nil {
		return nil, ErrNotConnected
	}
	return t.api, nil
}

// update applies fn to the snapshot under the write lock. Callers hold
// updateMu.
func (t *Tracker) update(fn func(*state)) state {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.st)
	return t.st
}

func (t *Tracker) snapshot() state {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.st
}
