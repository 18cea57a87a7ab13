package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"masterybox/internal/cdragon"
	"masterybox/internal/lcu"
	"masterybox/internal/league"
	"masterybox/internal/reducer"
)

// RefreshChampionMastery rebuilds the champion mastery cache. Empty or
// failed upstream responses keep the existing cache.
func (t *Tracker) RefreshChampionMastery(ctx context.Context) error {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()
	return t.refreshChampionMastery(ctx)
}

// RefreshMasteryChest re-publishes the cached chest info while its next
// date is in the future, unless force is set.
func (t *Tracker) RefreshMasteryChest(ctx context.Context, force bool) error {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()
	return t.refreshMasteryChest(ctx, force)
}

// RefreshPhase fetches the current gameflow phase and applies it.
func (t *Tracker) RefreshPhase(ctx context.Context) error {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()
	return t.refreshPhase(ctx)
}

func (t *Tracker) refreshChampionMastery(ctx context.Context) error {
	api, err := t.client()
	if err != nil {
		return err
	}
	summoner := t.snapshot().summoner
	if !summoner.Authorized() {
		return ErrNotLoggedIn
	}

	var champions []lcu.CollectionsChampion
	if err := api.GetJSON(ctx, lcu.ChampionsEndpoint(summoner.SummonerID), &champions); err != nil {
		return fmt.Errorf("fetch champions: %w", err)
	}
	var masteries []lcu.ChampionMastery
	if err := api.GetJSON(ctx, lcu.ChampionMasteryEndpoint(summoner.SummonerID), &masteries); err != nil {
		return fmt.Errorf("fetch champion mastery: %w", err)
	}

	if len(champions) == 0 || masteries == nil {
		t.logger.Info("Champion mastery refresh returned no data, keeping cache",
			zap.Int("champions", len(champions)))
		return nil
	}

	st := t.update(func(s *state) { s.champions = reducer.ChampionMastery(champions, masteries) })
	t.logger.Debug("Champion mastery refreshed", zap.Int("champions", len(st.champions)))
	t.hub.PublishChampionMastery(st.champions)
	return nil
}

func (t *Tracker) refreshMasteryChest(ctx context.Context, force bool) error {
	cached := t.snapshot().chest
	if !force && !cached.Stale(t.now()) {
		t.hub.PublishMasteryChest(cached)
		return nil
	}

	api, err := t.client()
	if err != nil {
		return err
	}
	var eligibility lcu.ChestEligibility
	if err := api.GetJSON(ctx, lcu.URIChestEligibility, &eligibility); err != nil {
		return fmt.Errorf("fetch chest eligibility: %w", err)
	}

	st := t.update(func(s *state) { s.chest = reducer.MasteryChest(eligibility) })
	t.hub.PublishMasteryChest(st.chest)
	return nil
}

func (t *Tracker) refreshPhase(ctx context.Context) error {
	api, err := t.client()
	if err != nil {
		return err
	}
	var raw string
	if err := api.GetJSON(ctx, lcu.URIGameflowPhase, &raw); err != nil {
		return fmt.Errorf("fetch gameflow phase: %w", err)
	}
	phase := league.ParsePhase(raw)
	if err := t.applyPhase(ctx, phase); err != nil {
		return err
	}
	if phase != league.PhaseChampSelect {
		return nil
	}

	// No push arrives for a session that was already running, so read it.
	var session lcu.ChampSelectSession
	if err := api.GetJSON(ctx, lcu.URIChampSelect, &session); err != nil {
		if errors.Is(err, lcu.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("fetch champion select session: %w", err)
	}
	return t.applyChampSelect(ctx, session)
}

// applyPhase stores the phase and derives the game mode. Entering
// champion select needs the gameflow session; if that fetch fails the
// whole update is dropped.
func (t *Tracker) applyPhase(ctx context.Context, phase league.GameflowPhase) error {
	mode := league.GameModeNone

	if phase == league.PhaseChampSelect {
		api, err := t.client()
		if err != nil {
			return err
		}
		var session lcu.GameflowSession
		if err := api.GetJSON(ctx, lcu.URIGameflowSession, &session); err != nil {
			return fmt.Errorf("fetch gameflow session: %w", err)
		}

		mode = reducer.GameModeFromQueue(session.GameData.Queue.GameMode)
		if mode == league.GameModeBlindPick {
			mode = t.refineGameMode(ctx, session.GameData.Queue.ID)
		}
	}

	st := t.update(func(s *state) {
		s.phase = phase
		s.gameMode = mode
	})
	t.logger.Debug("Phase changed", zap.String("phase", string(st.phase)), zap.Stringer("gameMode", st.gameMode))
	t.hub.PublishPhase(st.phase)
	t.hub.PublishGameMode(st.gameMode)

	if phase == league.PhaseEndOfGame {
		if err := t.refreshChampionMastery(ctx); err != nil {
			t.logger.Warn("Champion mastery refresh after game failed", zap.Error(err))
		}
	}
	return nil
}

func (t *Tracker) refineGameMode(ctx context.Context, queueID int) league.GameMode {
	if t.meta == nil {
		return league.GameModeUnknown
	}
	queue, err := t.meta.Describe(ctx, queueID)
	if err != nil {
		if !errors.Is(err, cdragon.ErrUnknownQueue) {
			t.logger.Warn("Queue lookup failed", zap.Int("queueId", queueID), zap.Error(err))
		}
		return league.GameModeUnknown
	}
	return reducer.RefineGameMode(queue.Description)
}
