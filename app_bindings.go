package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"masterybox/internal/league"
)

const bindingTimeout = 10 * time.Second

// RoleChampions is the overlay's champion list for one role.
type RoleChampions struct {
	Role      string                `json:"role"`
	HasData   bool                  `json:"hasData"`
	Error     string                `json:"error,omitempty"`
	Champions []league.ChampionInfo `json:"champions"`
}

// ChestStatus is the mastery chest state with the countdown precomputed.
type ChestStatus struct {
	HasDate          bool      `json:"hasDate"`
	NextChestDate    time.Time `json:"nextChestDate"`
	EarnableChests   int       `json:"earnableChests"`
	RemainingSeconds int64     `json:"remainingSeconds"`
}

func (a *App) bindingContext() (context.Context, context.CancelFunc) {
	parent := a.ctx
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, bindingTimeout)
}

// GetConnectionState returns the supervisor's current state name.
func (a *App) GetConnectionState() string {
	return a.supervisor.State().String()
}

func (a *App) GetSummoner() league.SummonerInfo {
	return a.tracker.Summoner()
}

func (a *App) GetPhase() string {
	return string(a.tracker.Phase())
}

func (a *App) GetGameMode() string {
	return a.tracker.GameMode().String()
}

func (a *App) GetChampionSelect() league.ChampionSelectInfo {
	return a.tracker.ChampionSelect()
}

// GetMasteryChest returns the cached chest state. Pass refresh to refetch it
// when the cached date has passed.
func (a *App) GetMasteryChest(refresh bool) ChestStatus {
	if refresh {
		ctx, cancel := a.bindingContext()
		defer cancel()
		if err := a.tracker.RefreshMasteryChest(ctx, false); err != nil {
			a.logger.Debug("Mastery chest refresh failed", zap.Error(err))
		}
	}

	chest := a.tracker.MasteryChest()
	return ChestStatus{
		HasDate:          !chest.NextChestDate.IsZero(),
		NextChestDate:    chest.NextChestDate,
		EarnableChests:   chest.EarnableChests,
		RemainingSeconds: int64(chest.RemainingTime(time.Now()).Seconds()),
	}
}

// GetChampionsForRole lists cached champions played in role, highest
// mastery first. An empty role means every champion.
func (a *App) GetChampionsForRole(role string) RoleChampions {
	result := RoleChampions{Role: role, Champions: []league.ChampionInfo{}}

	r, err := league.ParseRole(role)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Role = r.String()

	ctx, cancel := a.bindingContext()
	defer cancel()

	champs, err := a.tracker.ChampionsForRole(ctx, r)
	if err != nil {
		a.logger.Warn("Failed to list champions for role", zap.Stringer("role", r), zap.Error(err))
		result.Error = err.Error()
		return result
	}
	if len(champs) > 0 {
		result.HasData = true
		result.Champions = champs
	}
	return result
}
