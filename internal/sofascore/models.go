package sofascore

import (
	"fmt"
	"strings"
	"time"
)

type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

// DisplayName prefers the short name the way match graphics do.
func (t Team) DisplayName() string {
	if t.ShortName != "" {
		return t.ShortName
	}
	return t.Name
}

type Status struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type Score struct {
	Current int `json:"current"`
}

type Event struct {
	ID             int64  `json:"id"`
	HomeTeam       Team   `json:"homeTeam"`
	AwayTeam       Team   `json:"awayTeam"`
	StartTimestamp int64  `json:"startTimestamp"`
	Status         Status `json:"status"`
	HomeScore      Score  `json:"homeScore"`
	AwayScore      Score  `json:"awayScore"`
}

// Involves reports whether either side is the given team.
func (e *Event) Involves(teamID int64) bool {
	return e.HomeTeam.ID == teamID || e.AwayTeam.ID == teamID
}

// Kickoff converts the start timestamp to the given zone. Events
// without a timestamp map to "now" so they never look like a future
// fixture.
func (e *Event) Kickoff(loc *time.Location) time.Time {
	if e.StartTimestamp == 0 {
		return time.Now().In(loc)
	}
	return time.Unix(e.StartTimestamp, 0).In(loc)
}

// VersusLine renders "Home vs Away" with short names.
func (e *Event) VersusLine() string {
	home := e.HomeTeam.DisplayName()
	if home == "" {
		home = "Home"
	}
	away := e.AwayTeam.DisplayName()
	if away == "" {
		away = "Away"
	}
	return fmt.Sprintf("%s vs %s", home, away)
}

// Scoreline renders "Home 2–1 Away" with the current score.
func (e *Event) Scoreline() string {
	home := e.HomeTeam.DisplayName()
	if home == "" {
		home = "Home"
	}
	away := e.AwayTeam.DisplayName()
	if away == "" {
		away = "Away"
	}
	return fmt.Sprintf("%s %d–%d %s", home, e.HomeScore.Current, e.AwayScore.Current, away)
}

// IsLive reports whether the event is currently being played.
func (e *Event) IsLive() bool {
	switch strings.ToLower(e.Status.Type) {
	case "inprogress", "live":
		return true
	}
	return false
}

// IsFinished covers every terminal status, including postponed, which
// gets the same one-off full-time treatment.
func (e *Event) IsFinished() bool {
	switch strings.ToLower(e.Status.Type) {
	case "finished", "afterextra", "penalties", "postponed":
		return true
	}
	return false
}

// IsHalftime relies on the status description; the feed keeps the
// status type at "inprogress" through the interval.
func (e *Event) IsHalftime() bool {
	return strings.EqualFold(e.Status.Description, "halftime")
}

type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Incident struct {
	Type   string `json:"type"`
	Time   int    `json:"time"`
	IsHome bool   `json:"isHome"`
	Player Player `json:"player"`
}

// Incidents groups the three incident lists the feed may populate.
type Incidents struct {
	Incidents     []Incident `json:"incidents"`
	HomeIncidents []Incident `json:"homeIncidents"`
	AwayIncidents []Incident `json:"awayIncidents"`
}

// GoalIDs derives a stable synthetic id per goal, since the feed has no
// native incident ids. The player/time/side derivation must stay
// stable: persisted dedupe state depends on it.
func (in *Incidents) GoalIDs() []string {
	var ids []string
	for _, list := range [][]Incident{in.HomeIncidents, in.AwayIncidents, in.Incidents} {
		for _, inc := range list {
			if inc.Type != "goal" {
				continue
			}
			ids = append(ids, fmt.Sprintf("goal-%d-%d-%t", inc.Player.ID, inc.Time, inc.IsHome))
		}
	}
	return ids
}
