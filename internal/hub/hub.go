// Package hub fans derived league state out to observers, one topic per
// state slice.
package hub

import (
	"go.uber.org/zap"

	"masterybox/internal/league"
)

// Hub owns one Topic per state slice. Delivery is ordered within a slice
// but not across slices.
type Hub struct {
	connection      *Topic[league.ConnectionState]
	summoner        *Topic[league.SummonerInfo]
	masteryChest    *Topic[league.MasteryChestInfo]
	championSelect  *Topic[league.ChampionSelectInfo]
	phase           *Topic[league.GameflowPhase]
	gameMode        *Topic[league.GameMode]
	championMastery *Topic[map[int]league.ChampionInfo]

	flushers []func()
	closers  []func()
}

func New(logger *zap.Logger) *Hub {
	logger = logger.Named("hub")
	h := &Hub{
		connection:      newTopic[league.ConnectionState]("connection", nil, logger),
		summoner:        newTopic[league.SummonerInfo]("summoner", nil, logger),
		masteryChest:    newTopic[league.MasteryChestInfo]("masteryChest", nil, logger),
		championSelect:  newTopic("championSelect", league.ChampionSelectInfo.Clone, logger),
		phase:           newTopic[league.GameflowPhase]("phase", nil, logger),
		gameMode:        newTopic[league.GameMode]("gameMode", nil, logger),
		championMastery: newTopic("championMastery", league.CloneChampions, logger),
	}
	h.flushers = []func(){
		h.connection.Flush, h.summoner.Flush, h.masteryChest.Flush, h.championSelect.Flush,
		h.phase.Flush, h.gameMode.Flush, h.championMastery.Flush,
	}
	h.closers = []func(){
		h.connection.Close, h.summoner.Close, h.masteryChest.Close, h.championSelect.Close,
		h.phase.Close, h.gameMode.Close, h.championMastery.Close,
	}
	return h
}

func (h *Hub) OnConnectionChange(fn func(league.ConnectionState)) func() {
	return h.connection.Subscribe(fn)
}

func (h *Hub) OnSummonerChange(fn func(league.SummonerInfo)) func() {
	return h.summoner.Subscribe(fn)
}

func (h *Hub) OnMasteryChestChange(fn func(league.MasteryChestInfo)) func() {
	return h.masteryChest.Subscribe(fn)
}

func (h *Hub) OnChampionSelectChange(fn func(league.ChampionSelectInfo)) func() {
	return h.championSelect.Subscribe(fn)
}

func (h *Hub) OnPhaseChange(fn func(league.GameflowPhase)) func() {
	return h.phase.Subscribe(fn)
}

func (h *Hub) OnGameModeChange(fn func(league.GameMode)) func() {
	return h.gameMode.Subscribe(fn)
}

// OnChampionMasteryChange receives a private copy of the mastery map.
func (h *Hub) OnChampionMasteryChange(fn func(map[int]league.ChampionInfo)) func() {
	return h.championMastery.Subscribe(fn)
}

func (h *Hub) PublishConnection(s league.ConnectionState)   { h.connection.Publish(s) }
func (h *Hub) PublishSummoner(s league.SummonerInfo)         { h.summoner.Publish(s) }
func (h *Hub) PublishMasteryChest(c league.MasteryChestInfo) { h.masteryChest.Publish(c) }
func (h *Hub) PublishPhase(p league.GameflowPhase)           { h.phase.Publish(p) }
func (h *Hub) PublishGameMode(m league.GameMode)             { h.gameMode.Publish(m) }

func (h *Hub) PublishChampionSelect(c league.ChampionSelectInfo) {
	h.championSelect.Publish(c.Clone())
}

func (h *Hub) PublishChampionMastery(m map[int]league.ChampionInfo) {
	h.championMastery.Publish(league.CloneChampions(m))
}

// Flush waits for every topic to drain.
func (h *Hub) Flush() {
	for _, f := range h.flushers {
		f()
	}
}

// Close stops all delivery goroutines after pending values are delivered.
func (h *Hub) Close() {
	for _, c := range h.closers {
		c()
	}
}
