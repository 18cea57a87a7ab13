package league

import (
	"fmt"
	"strings"
)

// Role is a champion-select position.
type Role int

const (
	RoleAny Role = iota
	RoleTop
	RoleJungle
	RoleMiddle
	RoleBottom
	RoleSupport
)

func (r Role) String() string {
	switch r {
	case RoleAny:
		return "ANY"
	case RoleTop:
		return "TOP"
	case RoleJungle:
		return "JUNGLE"
	case RoleMiddle:
		return "MIDDLE"
	case RoleBottom:
		return "BOTTOM"
	case RoleSupport:
		return "SUPPORT"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// RoleFromPosition maps an assignedPosition string from the champ-select
// session. UTILITY is the client's name for support.
func RoleFromPosition(position string) Role {
	switch strings.ToUpper(strings.TrimSpace(position)) {
	case "TOP":
		return RoleTop
	case "JUNGLE":
		return RoleJungle
	case "MIDDLE":
		return RoleMiddle
	case "BOTTOM":
		return RoleBottom
	case "UTILITY":
		return RoleSupport
	default:
		return RoleAny
	}
}

// ParseRole accepts a role name as printed by Role.String, or a client
// position. Empty input and "ANY" are RoleAny.
func ParseRole(s string) (Role, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "", "ANY":
		return RoleAny, nil
	case "SUPPORT":
		return RoleSupport, nil
	}
	if r := RoleFromPosition(name); r != RoleAny {
		return r, nil
	}
	return RoleAny, fmt.Errorf("unknown role %q", s)
}

// OwnershipStatus says whether a champion is playable and, when owned,
// whether its mastery chest was already granted this season.
type OwnershipStatus int

const (
	NotOwned OwnershipStatus = iota
	FreeToPlay
	Rental
	BoxAttained
	BoxNotAttained
)

func (o OwnershipStatus) String() string {
	switch o {
	case NotOwned:
		return "NOT_OWNED"
	case FreeToPlay:
		return "FREE_TO_PLAY"
	case Rental:
		return "RENTAL"
	case BoxAttained:
		return "BOX_ATTAINED"
	case BoxNotAttained:
		return "BOX_NOT_ATTAINED"
	default:
		return fmt.Sprintf("OwnershipStatus(%d)", int(o))
	}
}

// Owned reports whether the champion is permanently unlocked.
func (o OwnershipStatus) Owned() bool {
	return o == BoxAttained || o == BoxNotAttained
}

type ChampionInfo struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	OwnershipStatus  OwnershipStatus `json:"ownershipStatus"`
	MasteryPoints    int             `json:"masteryPoints"`
	MasteryLevel     int             `json:"masteryLevel"`
	TokensEarned     int             `json:"tokensEarned"`
	IsSelectedBySelf bool            `json:"isSelectedBySelf"`
}

// SlotState distinguishes an empty team cell from one whose champion could
// not be resolved against the mastery cache yet.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotUnresolved
	SlotResolved
)

func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "EMPTY"
	case SlotUnresolved:
		return "UNRESOLVED"
	case SlotResolved:
		return "RESOLVED"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// TeamSlot is one cell of the local team in champion select. Champion is
// only meaningful when State is SlotResolved.
type TeamSlot struct {
	CellID     int64        `json:"cellId"`
	ChampionID int          `json:"championId"`
	State      SlotState    `json:"state"`
	Champion   ChampionInfo `json:"champion"`
}

// Resolved returns the slot's champion and whether it is known.
func (s TeamSlot) Resolved() (ChampionInfo, bool) {
	if s.State != SlotResolved {
		return ChampionInfo{}, false
	}
	return s.Champion, true
}

type ChampionSelectInfo struct {
	TeamChampions    []TeamSlot     `json:"teamChampions"`
	BenchedChampions []ChampionInfo `json:"benchedChampions"`
	AssignedRole     Role           `json:"assignedRole"`
}

// Clone returns a copy that shares no backing arrays with c.
func (c ChampionSelectInfo) Clone() ChampionSelectInfo {
	out := ChampionSelectInfo{AssignedRole: c.AssignedRole}
	if c.TeamChampions != nil {
		out.TeamChampions = append([]TeamSlot(nil), c.TeamChampions...)
	}
	if c.BenchedChampions != nil {
		out.BenchedChampions = append([]ChampionInfo(nil), c.BenchedChampions...)
	}
	return out
}

// SelectedChampion returns the champion the local summoner is playing, if
// it has been resolved.
func (c ChampionSelectInfo) SelectedChampion() (ChampionInfo, bool) {
	for _, slot := range c.TeamChampions {
		if champ, ok := slot.Resolved(); ok && champ.IsSelectedBySelf {
			return champ, true
		}
	}
	return ChampionInfo{}, false
}

// CloneChampions copies a champion mastery map.
func CloneChampions(m map[int]ChampionInfo) map[int]ChampionInfo {
	out := make(map[int]ChampionInfo, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
