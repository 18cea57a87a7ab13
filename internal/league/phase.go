package league

import (
	"fmt"
	"strings"
)

// GameflowPhase is the client's current game-flow phase as reported by
// /lol-gameflow/v1/gameflow-phase.
type GameflowPhase string

const (
	PhaseNone                  GameflowPhase = "None"
	PhaseLobby                 GameflowPhase = "Lobby"
	PhaseMatchmaking           GameflowPhase = "Matchmaking"
	PhaseCheckedIntoTournament GameflowPhase = "CheckedIntoTournament"
	PhaseReadyCheck            GameflowPhase = "ReadyCheck"
	PhaseChampSelect           GameflowPhase = "ChampSelect"
	PhaseGameStart             GameflowPhase = "GameStart"
	PhaseFailedToLaunch        GameflowPhase = "FailedToLaunch"
	PhaseInProgress            GameflowPhase = "InProgress"
	PhaseReconnect             GameflowPhase = "Reconnect"
	PhaseWaitingForStats       GameflowPhase = "WaitingForStats"
	PhasePreEndOfGame          GameflowPhase = "PreEndOfGame"
	PhaseEndOfGame             GameflowPhase = "EndOfGame"
	PhaseTerminatedInError     GameflowPhase = "TerminatedInError"
)

var knownPhases = []GameflowPhase{
	PhaseNone, PhaseLobby, PhaseMatchmaking, PhaseCheckedIntoTournament,
	PhaseReadyCheck, PhaseChampSelect, PhaseGameStart, PhaseFailedToLaunch,
	PhaseInProgress, PhaseReconnect, PhaseWaitingForStats, PhasePreEndOfGame,
	PhaseEndOfGame, PhaseTerminatedInError,
}

var phaseByKey = func() map[string]GameflowPhase {
	m := make(map[string]GameflowPhase, len(knownPhases))
	for _, p := range knownPhases {
		m[phaseKey(string(p))] = p
	}
	return m
}()

func phaseKey(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
}

// ParsePhase maps "ChampSelect", "CHAMPSELECT" and "CHAMP_SELECT" to the same
// phase. Unrecognised values are returned verbatim, empty input is PhaseNone.
func ParsePhase(s string) GameflowPhase {
	if strings.TrimSpace(s) == "" {
		return PhaseNone
	}
	if p, ok := phaseByKey[phaseKey(s)]; ok {
		return p
	}
	return GameflowPhase(s)
}

// GameMode is the queue type derived when champion select starts.
type GameMode int

const (
	GameModeNone GameMode = iota
	GameModeBlindPick
	GameModeDraftPick
	GameModeRankedSolo
	GameModeRankedFlex
	GameModeClash
	GameModeAram
	GameModeHexakill
	GameModeOneForAll
	GameModeUrf
	GameModeTutorial
	GameModeBot
	GameModePracticeTool
	GameModeUnknown
)

func (m GameMode) String() string {
	switch m {
	case GameModeNone:
		return "NONE"
	case GameModeBlindPick:
		return "BLIND_PICK"
	case GameModeDraftPick:
		return "DRAFT_PICK"
	case GameModeRankedSolo:
		return "RANKED_SOLO"
	case GameModeRankedFlex:
		return "RANKED_FLEX"
	case GameModeClash:
		return "CLASH"
	case GameModeAram:
		return "ARAM"
	case GameModeHexakill:
		return "HEXAKILL"
	case GameModeOneForAll:
		return "ONE_FOR_ALL"
	case GameModeUrf:
		return "URF"
	case GameModeTutorial:
		return "TUTORIAL"
	case GameModeBot:
		return "BOT"
	case GameModePracticeTool:
		return "PRACTICE_TOOL"
	case GameModeUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("GameMode(%d)", int(m))
	}
}

// RoleSpecific reports whether players are assigned a position in this mode.
func (m GameMode) RoleSpecific() bool {
	switch m {
	case GameModeDraftPick, GameModeRankedSolo, GameModeRankedFlex, GameModeClash:
		return true
	}
	return false
}
