// Package match picks the single most relevant fixture for this run:
// a live match beats everything, otherwise the soonest upcoming one.
package match

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/voken3959/tottenham/internal/metrics"
	"github.com/voken3959/tottenham/internal/sofascore"
)

type Mode string

const (
	ModeLive     Mode = "live"
	ModeUpcoming Mode = "upcoming"
	ModeNone     Mode = "none"
)

// Selection is the selector's verdict for this run.
type Selection struct {
	Mode  Mode
	Event *sofascore.Event
}

// EventLister is the slice of the data client the selector consumes.
type EventLister interface {
	NextEvents(ctx context.Context) ([]sofascore.Event, error)
	LastEvents(ctx context.Context) ([]sofascore.Event, error)
}

type Selector struct {
	events EventLister
	teamID int64
	window time.Duration
	loc    *time.Location
	now    func() time.Time
}

func NewSelector(events EventLister, teamID int64, window time.Duration, loc *time.Location) *Selector {
	if window <= 0 {
		window = 36 * time.Hour
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Selector{
		events: events,
		teamID: teamID,
		window: window,
		loc:    loc,
		now:    time.Now,
	}
}

// Select fetches upcoming and recent fixtures and classifies the
// current match context. A failed list fetch degrades to an empty list;
// the run goes on with whatever the other endpoint returned.
func (s *Selector) Select(ctx context.Context) Selection {
	next, err := s.events.NextEvents(ctx)
	if err != nil {
		slog.Warn("Failed to fetch upcoming events", "error", err)
		metrics.Global.IncrementFetchFailures()
		next = nil
	}
	// A match in progress can drop off "next" right after kickoff, so
	// recent events are always checked too.
	last, err := s.events.LastEvents(ctx)
	if err != nil {
		slog.Warn("Failed to fetch recent events", "error", err)
		metrics.Global.IncrementFetchFailures()
		last = nil
	}
	metrics.Global.AddEventsFetched(len(next) + len(last))

	now := s.now().In(s.loc)

	var candidates []sofascore.Event
	for _, ev := range append(next, last...) {
		if !ev.Involves(s.teamID) {
			continue
		}
		gap := ev.Kickoff(s.loc).Sub(now)
		if gap < 0 {
			gap = -gap
		}
		if gap >= s.window {
			continue
		}
		candidates = append(candidates, ev)
	}

	for i := range candidates {
		if candidates[i].IsLive() {
			return Selection{Mode: ModeLive, Event: &candidates[i]}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Kickoff(s.loc).Before(candidates[j].Kickoff(s.loc))
	})
	for i := range candidates {
		if candidates[i].Kickoff(s.loc).After(now) {
			return Selection{Mode: ModeUpcoming, Event: &candidates[i]}
		}
	}

	return Selection{Mode: ModeNone}
}
