package reducer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterybox/internal/lcu"
	"masterybox/internal/league"
)

func TestGameModeFromQueue(t *testing.T) {
	tests := []struct {
		mode string
		want league.GameMode
	}{
		{"CLASSIC", league.GameModeBlindPick},
		{"RANKED_SOLO_5x5", league.GameModeRankedSolo},
		{"RANKED_FLEX_SR", league.GameModeRankedFlex},
		{"CLASH", league.GameModeClash},
		{"ARAM", league.GameModeAram},
		{"HEXAKILL", league.GameModeHexakill},
		{"ONEFORALL", league.GameModeOneForAll},
		{"URF", league.GameModeUrf},
		{"TUTORIAL", league.GameModeTutorial},
		{"BOT", league.GameModeBot},
		{"PRACTICETOOL", league.GameModePracticeTool},
		{"NEXUSBLITZ", league.GameModeUnknown},
		{"", league.GameModeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.want, GameModeFromQueue(tt.mode))
		})
	}
}

func TestRefineGameMode(t *testing.T) {
	assert.Equal(t, league.GameModeDraftPick, RefineGameMode("Draft Pick"))
	assert.Equal(t, league.GameModeBlindPick, RefineGameMode("Blind Pick"))
	assert.Equal(t, league.GameModeRankedSolo, RefineGameMode("Ranked Solo/Duo"))
	assert.Equal(t, league.GameModeRankedFlex, RefineGameMode("Ranked Flex"))
	assert.Equal(t, league.GameModeClash, RefineGameMode("Clash"))
	assert.Equal(t, league.GameModeBot, RefineGameMode("Beginner"))
	assert.Equal(t, league.GameModeBot, RefineGameMode("Intermediate"))
	assert.Equal(t, league.GameModeBot, RefineGameMode("Co-op vs. AI"))
	assert.Equal(t, league.GameModeUnknown, RefineGameMode("Quickplay"))
}

func TestSummoner(t *testing.T) {
	got := Summoner(lcu.Summoner{AccountID: 7, SummonerID: 12345, DisplayName: "Faker", SummonerLevel: 500})

	assert.True(t, got.Authorized())
	assert.Equal(t, int64(12345), got.SummonerID)
	assert.Equal(t, "Faker", got.DisplayName)
	assert.Equal(t, 500, got.SummonerLevel)
}

func owned(id int, name string) lcu.CollectionsChampion {
	return lcu.CollectionsChampion{ID: id, Name: name, Ownership: lcu.ChampionOwnership{Owned: true}}
}

func TestChampionMastery_Ownership(t *testing.T) {
	champions := []lcu.CollectionsChampion{
		{ID: lcu.NoChampionID, Name: "None"},
		owned(1, "Annie"),
		owned(2, "Olaf"),
		owned(3, "Galio"),
		{ID: 4, Name: "Twisted Fate", FreeToPlay: true, Ownership: lcu.ChampionOwnership{Rental: lcu.RentalDetails{Rented: true}}},
		{ID: 5, Name: "Xin Zhao", FreeToPlay: true},
		{ID: 6, Name: "Urgot"},
	}
	masteries := []lcu.ChampionMastery{
		{ChampionID: 1, ChampionPoints: 21000, ChampionLevel: 5, ChestGranted: true, TokensEarned: 1},
		{ChampionID: 2, ChampionPoints: 900, ChampionLevel: 1},
		{ChampionID: 6, ChampionPoints: 50, ChampionLevel: 1, ChestGranted: true},
	}

	got := ChampionMastery(champions, masteries)

	require.Len(t, got, 6)
	_, ok := got[lcu.NoChampionID]
	assert.False(t, ok, "placeholder champion must be skipped")

	assert.Equal(t, league.ChampionInfo{
		ID: 1, Name: "Annie", OwnershipStatus: league.BoxAttained,
		MasteryPoints: 21000, MasteryLevel: 5, TokensEarned: 1,
	}, got[1])
	assert.Equal(t, league.BoxNotAttained, got[2].OwnershipStatus)
	assert.Equal(t, 900, got[2].MasteryPoints)

	// Owned with no mastery record.
	assert.Equal(t, league.ChampionInfo{ID: 3, Name: "Galio", OwnershipStatus: league.BoxNotAttained}, got[3])

	// Rental wins over free-to-play.
	assert.Equal(t, league.Rental, got[4].OwnershipStatus)
	assert.Equal(t, league.FreeToPlay, got[5].OwnershipStatus)

	// Unowned ignores chestGranted but keeps points.
	assert.Equal(t, league.NotOwned, got[6].OwnershipStatus)
	assert.Equal(t, 50, got[6].MasteryPoints)
}

func TestChampionMastery_EmptyMastery(t *testing.T) {
	got := ChampionMastery([]lcu.CollectionsChampion{owned(10, "Teemo")}, nil)
	assert.Equal(t, league.BoxNotAttained, got[10].OwnershipStatus)
}

func testCache() map[int]league.ChampionInfo {
	return map[int]league.ChampionInfo{
		1:  {ID: 1, Name: "Annie", OwnershipStatus: league.BoxAttained},
		2:  {ID: 2, Name: "Olaf", OwnershipStatus: league.BoxNotAttained},
		3:  {ID: 3, Name: "Galio", OwnershipStatus: league.NotOwned},
		10: {ID: 10, Name: "Teemo", OwnershipStatus: league.FreeToPlay},
	}
}

func TestChampionSelect(t *testing.T) {
	session := lcu.ChampSelectSession{
		MyTeam: []lcu.ChampSelectPlayer{
			{CellID: 2, ChampionID: 2, SummonerID: 99},
			{CellID: 0, ChampionID: 1, SummonerID: 12345, AssignedPosition: "utility"},
			{CellID: 1, ChampionID: 0, SummonerID: 98},
			{CellID: 3, ChampionID: 777, SummonerID: 97},
		},
		BenchChampionIDs: []int{10, 4242, 3},
	}
	cache := testCache()

	got, err := ChampionSelect(session, 12345, cache)
	require.NoError(t, err)

	assert.Equal(t, league.RoleSupport, got.AssignedRole)
	require.Len(t, got.TeamChampions, 4)

	for i, slot := range got.TeamChampions {
		assert.Equal(t, int64(i), slot.CellID, "team must be ordered by cell")
	}
	assert.Equal(t, league.SlotResolved, got.TeamChampions[0].State)
	assert.True(t, got.TeamChampions[0].Champion.IsSelectedBySelf)
	assert.Equal(t, league.SlotEmpty, got.TeamChampions[1].State)
	assert.Equal(t, league.SlotResolved, got.TeamChampions[2].State)
	assert.False(t, got.TeamChampions[2].Champion.IsSelectedBySelf)
	assert.Equal(t, league.SlotUnresolved, got.TeamChampions[3].State)
	assert.Equal(t, 777, got.TeamChampions[3].ChampionID)

	selected, ok := got.SelectedChampion()
	require.True(t, ok)
	assert.Equal(t, "Annie", selected.Name)

	require.Len(t, got.BenchedChampions, 2)
	assert.Equal(t, "Teemo", got.BenchedChampions[0].Name)
	assert.Equal(t, "Galio", got.BenchedChampions[1].Name)

	assert.False(t, cache[1].IsSelectedBySelf, "cache must not be mutated")
}

func TestChampionSelect_NoChampionYet(t *testing.T) {
	session := lcu.ChampSelectSession{
		MyTeam: []lcu.ChampSelectPlayer{{CellID: 0, SummonerID: 12345, AssignedPosition: "JUNGLE"}},
	}

	got, err := ChampionSelect(session, 12345, testCache())
	require.NoError(t, err)
	assert.Equal(t, league.RoleJungle, got.AssignedRole)
	_, ok := got.SelectedChampion()
	assert.False(t, ok)
	assert.Empty(t, got.BenchedChampions)
}

func TestChampionSelect_SelfMissing(t *testing.T) {
	session := lcu.ChampSelectSession{
		MyTeam: []lcu.ChampSelectPlayer{{CellID: 0, ChampionID: 1, SummonerID: 1}},
	}

	_, err := ChampionSelect(session, 12345, testCache())
	require.ErrorIs(t, err, ErrSelfNotInTeam)
}

func TestMasteryChest(t *testing.T) {
	got := MasteryChest(lcu.ChestEligibility{NextChestRechargeTime: 1700000000000, EarnableChests: 2})
	assert.Equal(t, 2, got.EarnableChests)
	assert.True(t, got.NextChestDate.Equal(time.UnixMilli(1700000000000)))

	got = MasteryChest(lcu.ChestEligibility{EarnableChests: 4})
	assert.True(t, got.NextChestDate.IsZero())
	assert.Equal(t, 4, got.EarnableChests)
}
