// Package reducer folds raw client payloads into the derived league state.
// Every function here is pure; callers own locking and notification.
package reducer

import (
	"errors"
	"sort"
	"time"

	"masterybox/internal/lcu"
	"masterybox/internal/league"
)

// ErrSelfNotInTeam is returned when champion select does not list the
// logged-in summoner on their own team.
var ErrSelfNotInTeam = errors.New("reducer: own summoner missing from champion select team")

var queueGameModes = map[string]league.GameMode{
	"CLASSIC":         league.GameModeBlindPick,
	"RANKED_SOLO_5x5": league.GameModeRankedSolo,
	"RANKED_FLEX_SR":  league.GameModeRankedFlex,
	"CLASH":           league.GameModeClash,
	"ARAM":            league.GameModeAram,
	"HEXAKILL":        league.GameModeHexakill,
	"ONEFORALL":       league.GameModeOneForAll,
	"URF":             league.GameModeUrf,
	"TUTORIAL":        league.GameModeTutorial,
	"BOT":             league.GameModeBot,
	"PRACTICETOOL":    league.GameModePracticeTool,
}

var queueDescriptions = map[string]league.GameMode{
	"Blind Pick":      league.GameModeBlindPick,
	"Draft Pick":      league.GameModeDraftPick,
	"Ranked Solo/Duo": league.GameModeRankedSolo,
	"Ranked Flex":     league.GameModeRankedFlex,
	"Clash":           league.GameModeClash,
	"Beginner":        league.GameModeBot,
	"Intermediate":    league.GameModeBot,
	"Co-op vs. AI":    league.GameModeBot,
}

// GameModeFromQueue maps gameData.queue.gameMode. CLASSIC covers every
// Summoner's Rift queue and maps to BlindPick until refined.
func GameModeFromQueue(mode string) league.GameMode {
	if m, ok := queueGameModes[mode]; ok {
		return m
	}
	return league.GameModeUnknown
}

// RefineGameMode maps a queue description from the metadata cache.
func RefineGameMode(description string) league.GameMode {
	if m, ok := queueDescriptions[description]; ok {
		return m
	}
	return league.GameModeUnknown
}

// Summoner builds an authorized identity from the current-summoner payload.
func Summoner(s lcu.Summoner) league.SummonerInfo {
	return league.SummonerInfo{
		Status:                      league.StatusLoggedInAuthorized,
		AccountID:                   s.AccountID,
		SummonerID:                  s.SummonerID,
		DisplayName:                 s.DisplayName,
		InternalName:                s.InternalName,
		PercentCompleteForNextLevel: s.PercentCompleteForNextLevel,
		SummonerLevel:               s.SummonerLevel,
		XPUntilNextLevel:            s.XPUntilNextLevel,
	}
}

// ChampionMastery cross-joins the champion inventory with mastery records.
func ChampionMastery(champions []lcu.CollectionsChampion, masteries []lcu.ChampionMastery) map[int]league.ChampionInfo {
	byID := make(map[int]lcu.ChampionMastery, len(masteries))
	for _, m := range masteries {
		byID[m.ChampionID] = m
	}

	out := make(map[int]league.ChampionInfo, len(champions))
	for _, c := range champions {
		if c.ID == lcu.NoChampionID {
			continue
		}

		info := league.ChampionInfo{ID: c.ID, Name: c.Name}
		m, hasMastery := byID[c.ID]

		switch {
		case !c.Ownership.Owned && c.Ownership.Rental.Rented:
			info.OwnershipStatus = league.Rental
		case !c.Ownership.Owned && c.FreeToPlay:
			info.OwnershipStatus = league.FreeToPlay
		case !c.Ownership.Owned:
			info.OwnershipStatus = league.NotOwned
		case hasMastery && m.ChestGranted:
			info.OwnershipStatus = league.BoxAttained
		default:
			info.OwnershipStatus = league.BoxNotAttained
		}

		if hasMastery {
			info.MasteryPoints = m.ChampionPoints
			info.MasteryLevel = m.ChampionLevel
			info.TokensEarned = m.TokensEarned
		}
		out[c.ID] = info
	}
	return out
}

// ChampionSelect rebuilds the champion select view for summonerID.
// champions is the current mastery cache and is not modified.
func ChampionSelect(session lcu.ChampSelectSession, summonerID int64, champions map[int]league.ChampionInfo) (league.ChampionSelectInfo, error) {
	var self *lcu.ChampSelectPlayer
	for i := range session.MyTeam {
		if session.MyTeam[i].SummonerID == summonerID {
			self = &session.MyTeam[i]
			break
		}
	}
	if self == nil {
		return league.ChampionSelectInfo{}, ErrSelfNotInTeam
	}

	team := append([]lcu.ChampSelectPlayer(nil), session.MyTeam...)
	sort.SliceStable(team, func(i, j int) bool { return team[i].CellID < team[j].CellID })

	info := league.ChampionSelectInfo{
		TeamChampions:    make([]league.TeamSlot, 0, len(team)),
		BenchedChampions: make([]league.ChampionInfo, 0, len(session.BenchChampionIDs)),
		AssignedRole:     league.RoleFromPosition(self.AssignedPosition),
	}

	flagged := false
	for _, p := range team {
		slot := league.TeamSlot{CellID: p.CellID, ChampionID: p.ChampionID}
		switch champ, ok := champions[p.ChampionID]; {
		case p.ChampionID == 0:
			slot.State = league.SlotEmpty
		case !ok:
			slot.State = league.SlotUnresolved
		default:
			slot.State = league.SlotResolved
			champ.IsSelectedBySelf = !flagged && p.ChampionID == self.ChampionID
			flagged = flagged || champ.IsSelectedBySelf
			slot.Champion = champ
		}
		info.TeamChampions = append(info.TeamChampions, slot)
	}

	for _, id := range session.BenchChampionIDs {
		champ, ok := champions[id]
		if !ok {
			continue
		}
		champ.IsSelectedBySelf = false
		info.BenchedChampions = append(info.BenchedChampions, champ)
	}

	return info, nil
}

// MasteryChest converts the chest-eligibility payload. A zero recharge
// time means no date is known.
func MasteryChest(e lcu.ChestEligibility) league.MasteryChestInfo {
	info := league.MasteryChestInfo{EarnableChests: e.EarnableChests}
	if e.NextChestRechargeTime > 0 {
		info.NextChestDate = time.UnixMilli(e.NextChestRechargeTime)
	}
	return info
}
