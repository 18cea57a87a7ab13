package tracker

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"masterybox/internal/lcu"
	"masterybox/internal/league"
	"masterybox/internal/reducer"
)

var errMalformed = errors.New("malformed payload")

func decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

// HandleEvent routes one stream event to its reducer. Failures are logged
// and leave the previous state in place.
func (t *Tracker) HandleEvent(ctx context.Context, ev lcu.Event) {
	logger := t.logger.With(zap.String("uri", ev.URI), zap.String("eventType", ev.EventType))

	switch ev.URI {
	case lcu.URILoginSession, lcu.URIGameflowPhase, lcu.URIChampSelect, lcu.URIChestEligibility:
	default:
		logger.Debug("Ignoring event")
		return
	}
	if !ev.HasData() {
		logger.Debug("Ignoring event without data")
		return
	}

	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	var err error
	switch ev.URI {
	case lcu.URILoginSession:
		err = t.onLoginSession(ctx, ev.Data)
	case lcu.URIGameflowPhase:
		err = t.onPhase(ctx, ev.Data)
	case lcu.URIChampSelect:
		err = t.onChampSelect(ctx, ev.Data)
	case lcu.URIChestEligibility:
		err = t.onChestEligibility(ev.Data)
	}

	switch {
	case err == nil:
	case errors.Is(err, errMalformed):
		logger.Warn("Malformed payload", zap.Error(err))
	case errors.Is(err, reducer.ErrSelfNotInTeam):
		logger.Error("Champion select update skipped", zap.Error(err))
	default:
		logger.Warn("Event handling failed", zap.Error(err))
	}
}

func (t *Tracker) onLoginSession(ctx context.Context, data []byte) error {
	var session lcu.LoginSession
	if err := decode(data, &session); err != nil {
		return err
	}

	switch session.State {
	case lcu.LoginStateLoggingOut:
		t.logout()
	case lcu.LoginStateSucceeded:
		current := t.snapshot().summoner
		if current.Authorized() && current.SummonerID == session.SummonerID {
			// The handshake already loaded this summoner.
			return nil
		}
		return t.authorize(ctx)
	}
	return nil
}

func (t *Tracker) onPhase(ctx context.Context, data []byte) error {
	var raw string
	if err := decode(data, &raw); err != nil {
		return err
	}
	return t.applyPhase(ctx, league.ParsePhase(raw))
}

func (t *Tracker) onChampSelect(ctx context.Context, data []byte) error {
	var session lcu.ChampSelectSession
	if err := decode(data, &session); err != nil {
		return err
	}
	return t.applyChampSelect(ctx, session)
}

// applyChampSelect rebuilds the champion select view from session. It is a
// no-op outside a known game mode or before the team is populated.
func (t *Tracker) applyChampSelect(ctx context.Context, session lcu.ChampSelectSession) error {
	current := t.snapshot()
	if current.gameMode == league.GameModeNone || len(session.MyTeam) == 0 {
		return nil
	}

	if len(current.champions) == 0 {
		if err := t.refreshChampionMastery(ctx); err != nil {
			t.logger.Warn("Champion mastery refresh before champion select failed", zap.Error(err))
		}
		current = t.snapshot()
	}

	info, err := reducer.ChampionSelect(session, current.summoner.SummonerID, current.champions)
	if err != nil {
		return err
	}

	st := t.update(func(s *state) { s.champSelect = info })
	t.hub.PublishChampionSelect(st.champSelect)
	return nil
}

func (t *Tracker) onChestEligibility(data []byte) error {
	var eligibility lcu.ChestEligibility
	if err := decode(data, &eligibility); err != nil {
		return err
	}

	st := t.update(func(s *state) { s.chest = reducer.MasteryChest(eligibility) })
	t.hub.PublishMasteryChest(st.chest)
	return nil
}
