package lcu

import (
	"strconv"

	json "github.com/goccy/go-json"
)

// Event URIs the tracker subscribes to.
const (
	URILoginSession     = "/lol-login/v1/session"
	URIGameflowPhase    = "/lol-gameflow/v1/gameflow-phase"
	URIGameflowSession  = "/lol-gameflow/v1/session"
	URIChampSelect      = "/lol-champ-select/v1/session"
	URIChestEligibility = "/lol-collections/v1/inventories/chest-eligibility"
	URICurrentSummoner  = "/lol-summoner/v1/current-summoner"
)

// Login session states.
const (
	LoginStateSucceeded  = "SUCCEEDED"
	LoginStateLoggingOut = "LOGGING_OUT"
	LoginStateInProgress = "IN_PROGRESS"
)

// NoChampionID is the synthetic "no champion" entry in the inventory.
const NoChampionID = -1

// ChampionsEndpoint lists every champion with ownership flags.
func ChampionsEndpoint(summonerID int64) string {
	return "/lol-champions/v1/inventories/" + strconv.FormatInt(summonerID, 10) + "/champions"
}

// ChampionMasteryEndpoint lists mastery records for the summoner.
func ChampionMasteryEndpoint(summonerID int64) string {
	return "/lol-collections/v1/inventories/" + strconv.FormatInt(summonerID, 10) + "/champion-mastery"
}

// Event is one OnJsonApiEvent frame from the WAMP stream.
type Event struct {
	URI       string          `json:"uri"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// HasData reports whether the event carries a payload. Delete events
// arrive with null data.
func (e Event) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

type LoginSession struct {
	State       string `json:"state"`
	SummonerID  int64  `json:"summonerId"`
	AccountID   int64  `json:"accountId"`
	Connected   bool   `json:"connected"`
	IsNewPlayer bool   `json:"isNewPlayer"`
}

type Summoner struct {
	AccountID                   int64  `json:"accountId"`
	SummonerID                  int64  `json:"summonerId"`
	DisplayName                 string `json:"displayName"`
	InternalName                string `json:"internalName"`
	PercentCompleteForNextLevel int    `json:"percentCompleteForNextLevel"`
	SummonerLevel               int    `json:"summonerLevel"`
	XPUntilNextLevel            int64  `json:"xpUntilNextLevel"`
}

type GameflowSession struct {
	Phase    string           `json:"phase"`
	GameData GameflowGameData `json:"gameData"`
}

type GameflowGameData struct {
	GameID int64         `json:"gameId"`
	Queue  GameflowQueue `json:"queue"`
}

type GameflowQueue struct {
	ID       int    `json:"id"`
	GameMode string `json:"gameMode"`
	Type     string `json:"type"`
	Name     string `json:"name"`
}

type ChampSelectSession struct {
	LocalPlayerCellID int64               `json:"localPlayerCellId"`
	MyTeam            []ChampSelectPlayer `json:"myTeam"`
	BenchChampionIDs  []int               `json:"benchChampionIds"`
	BenchEnabled      bool                `json:"benchEnabled"`
}

type ChampSelectPlayer struct {
	CellID             int64  `json:"cellId"`
	ChampionID         int    `json:"championId"`
	ChampionPickIntent int    `json:"championPickIntent"`
	SummonerID         int64  `json:"summonerId"`
	AssignedPosition   string `json:"assignedPosition"`
}

type CollectionsChampion struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Alias      string            `json:"alias"`
	FreeToPlay bool              `json:"freeToPlay"`
	Ownership  ChampionOwnership `json:"ownership"`
}

type ChampionOwnership struct {
	Owned  bool          `json:"owned"`
	Rental RentalDetails `json:"rental"`
}

type RentalDetails struct {
	Rented bool `json:"rented"`
}

type ChampionMastery struct {
	ChampionID     int  `json:"championId"`
	ChampionPoints int  `json:"championPoints"`
	ChampionLevel  int  `json:"championLevel"`
	ChestGranted   bool `json:"chestGranted"`
	TokensEarned   int  `json:"tokensEarned"`
}

type ChestEligibility struct {
	NextChestRechargeTime int64 `json:"nextChestRechargeTime"`
	EarnableChests        int   `json:"earnableChests"`
	MaximumChests         int   `json:"maximumChests"`
}
