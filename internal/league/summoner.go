// Package league holds the derived client state shared between the tracker,
// the notification hub and observers.
package league

import "fmt"

// SummonerStatus is the login state of the local client.
type SummonerStatus int

const (
	StatusNotChecked SummonerStatus = iota
	StatusNotLoggedIn
	StatusLoggedInUnauthorized
	StatusLoggedInAuthorized
)

func (s SummonerStatus) String() string {
	switch s {
	case StatusNotChecked:
		return "NOT_CHECKED"
	case StatusNotLoggedIn:
		return "NOT_LOGGED_IN"
	case StatusLoggedInUnauthorized:
		return "LOGGED_IN_UNAUTHORIZED"
	case StatusLoggedInAuthorized:
		return "LOGGED_IN_AUTHORIZED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// SummonerInfo is the identity of the logged in summoner. Identity fields are
// only populated when Status is StatusLoggedInAuthorized.
type SummonerInfo struct {
	Status                      SummonerStatus `json:"status"`
	AccountID                   int64          `json:"accountId"`
	SummonerID                  int64          `json:"summonerId"`
	DisplayName                 string         `json:"displayName"`
	InternalName                string         `json:"internalName"`
	PercentCompleteForNextLevel int            `json:"percentCompleteForNextLevel"`
	SummonerLevel               int            `json:"summonerLevel"`
	XPUntilNextLevel            int64          `json:"xpUntilNextLevel"`
}

// NewSummonerInfo returns an identity with only the status set.
func NewSummonerInfo(status SummonerStatus) SummonerInfo {
	return SummonerInfo{Status: status}
}

// Authorized reports whether the identity fields are meaningful.
func (s SummonerInfo) Authorized() bool {
	return s.Status == StatusLoggedInAuthorized
}
