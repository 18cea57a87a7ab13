package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"masterybox/internal/lcu"
	"masterybox/internal/league"
	"masterybox/internal/reducer"
)

// Login runs the identity handshake and reports whether the summoner is
// authorized. A false result means the caller should poll again; the
// error, if any, says why the attempt failed.
func (t *Tracker) Login(ctx context.Context) (bool, error) {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()
	return t.login(ctx)
}

func (t *Tracker) login(ctx context.Context) (bool, error) {
	api, err := t.client()
	if err != nil {
		return false, err
	}

	connected, err := api.IsConnected(ctx)
	if err != nil && !lcu.IsConnRefused(err) {
		return false, fmt.Errorf("connectivity probe: %w", err)
	}
	if !connected {
		t.update(func(s *state) { s.summoner = league.NewSummonerInfo(league.StatusNotLoggedIn) })
		t.logger.Info("Login", zap.Stringer("status", league.StatusNotLoggedIn))
		return false, nil
	}

	authorized, err := api.IsAuthorized(ctx)
	if err != nil {
		if lcu.IsConnRefused(err) {
			return false, nil
		}
		return false, fmt.Errorf("privilege probe: %w", err)
	}
	if !authorized {
		prev := t.snapshot().summoner.Status
		st := t.update(func(s *state) { s.summoner = league.NewSummonerInfo(league.StatusLoggedInUnauthorized) })
		if prev != league.StatusLoggedInUnauthorized {
			t.logger.Info("Login", zap.Stringer("status", league.StatusLoggedInUnauthorized))
			t.hub.PublishSummoner(st.summoner)
		}
		return false, nil
	}

	if err := t.authorize(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// authorize loads the summoner identity, then syncs mastery, chest and
// phase so observers see a complete state right after login.
func (t *Tracker) authorize(ctx context.Context) error {
	api, err := t.client()
	if err != nil {
		return err
	}

	var summoner lcu.Summoner
	if err := api.GetJSON(ctx, lcu.URICurrentSummoner, &summoner); err != nil {
		return fmt.Errorf("fetch current summoner: %w", err)
	}

	st := t.update(func(s *state) { s.summoner = reducer.Summoner(summoner) })
	t.logger.Info("Login",
		zap.Stringer("status", league.StatusLoggedInAuthorized),
		zap.Int64("summonerId", st.summoner.SummonerID),
		zap.String("displayName", st.summoner.DisplayName),
	)
	t.hub.PublishSummoner(st.summoner)

	if err := t.refreshChampionMastery(ctx); err != nil {
		t.logger.Warn("Champion mastery refresh after login failed", zap.Error(err))
	}
	if err := t.refreshMasteryChest(ctx, false); err != nil {
		t.logger.Warn("Mastery chest refresh after login failed", zap.Error(err))
	}
	if err := t.refreshPhase(ctx); err != nil {
		t.logger.Warn("Phase refresh after login failed", zap.Error(err))
	}
	return nil
}

func (t *Tracker) logout() {
	st := t.update(func(s *state) { s.summoner = league.NewSummonerInfo(league.StatusNotLoggedIn) })
	t.logger.Info("Logged out")
	t.hub.PublishSummoner(st.summoner)
}
