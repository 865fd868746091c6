// Package notify decides which updates are new this run and publishes
// them, one per category at most, with dedupe flags in the state map.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voken3959/tottenham/internal/match"
	"github.com/voken3959/tottenham/internal/metrics"
	"github.com/voken3959/tottenham/internal/news"
	"github.com/voken3959/tottenham/internal/sofascore"
	"github.com/voken3959/tottenham/internal/state"
)

// Publisher sends one post and returns the platform id of the created
// post. One best-effort attempt per call; recovery is the next run.
type Publisher interface {
	Post(ctx context.Context, text string) (string, error)
}

// MatchData is the slice of the data client the live path needs.
type MatchData interface {
	EventDetails(ctx context.Context, eventID int64) (*sofascore.Event, error)
	EventIncidents(ctx context.Context, eventID int64) (*sofascore.Incidents, error)
}

// NewsSource provides the latest feed items, newest first.
type NewsSource interface {
	Latest(ctx context.Context) ([]news.Item, error)
}

type EngineConfig struct {
	Hashtags    string
	Location    *time.Location
	PrematchMin int // lower bound of the kickoff window, minutes
	PrematchMax int // upper bound, inclusive
}

type Engine struct {
	data     MatchData
	newsSrc  NewsSource
	pub      Publisher
	hashtags string
	loc      *time.Location
	preMin   int
	preMax   int
	now      func() time.Time
}

func NewEngine(data MatchData, newsSrc NewsSource, pub Publisher, cfg EngineConfig) *Engine {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	preMin, preMax := cfg.PrematchMin, cfg.PrematchMax
	if preMin == 0 && preMax == 0 {
		preMin, preMax = 55, 65
	}
	return &Engine{
		data:     data,
		newsSrc:  newsSrc,
		pub:      pub,
		hashtags: cfg.Hashtags,
		loc:      loc,
		preMin:   preMin,
		preMax:   preMax,
		now:      time.Now,
	}
}

// Run processes one poll: match handling according to the selector's
// verdict, then news. Mutates st; the caller persists it afterwards.
func (e *Engine) Run(ctx context.Context, sel match.Selection, st state.Flags) {
	switch sel.Mode {
	case match.ModeUpcoming:
		slog.Info("Upcoming match detected", "match", sel.Event.VersusLine())
		e.prematch(ctx, st, sel.Event)
	case match.ModeLive:
		slog.Info("Live match detected", "match", sel.Event.VersusLine())
		if err := e.liveUpdates(ctx, st, sel.Event); err != nil {
			// Detail fetches are not degraded like the list fetches:
			// without them there is nothing sensible to post.
			slog.Error("Live update processing aborted", "error", err)
			metrics.Global.IncrementFetchFailures()
		}
	}

	// News runs every time, whatever happened with the match.
	e.postNews(ctx, st)
}

func (e *Engine) prematch(ctx context.Context, st state.Flags, ev *sofascore.Event) {
	kickoff := ev.Kickoff(e.loc)
	minutes := int(kickoff.Sub(e.now().In(e.loc)).Minutes())
	key := fmt.Sprintf("prematch_posted_%d", ev.ID)

	if minutes < e.preMin || minutes > e.preMax {
		slog.Debug("Outside pre-match window", "minutes_to_kickoff", minutes)
		return
	}
	if st.Bool(key) {
		metrics.Global.IncrementDuplicatesSkipped()
		return
	}

	text := fmt.Sprintf("📅 Next Match (in ~%dm)\n%s\nKick-off: %s\n%s",
		minutes, ev.VersusLine(), kickoff.Format("15:04 MST"), e.hashtags)
	if e.post(ctx, "prematch", text) {
		st.SetBool(key)
	}
}

func (e *Engine) liveUpdates(ctx context.Context, st state.Flags, ev *sofascore.Event) error {
	details, err := e.data.EventDetails(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch event details: %w", err)
	}

	htKey := fmt.Sprintf("ht_posted_%d", ev.ID)
	ftKey := fmt.Sprintf("ft_posted_%d", ev.ID)
	goalsKey := fmt.Sprintf("posted_goals_%d", ev.ID)

	if details.IsLive() {
		incidents, err := e.data.EventIncidents(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch incidents: %w", err)
		}

		posted := st.Strings(goalsKey)
		postedSet := make(map[string]bool, len(posted))
		for _, id := range posted {
			postedSet[id] = true
		}

		for _, goalID := range incidents.GoalIDs() {
			if postedSet[goalID] {
				continue
			}
			text := fmt.Sprintf("⚽ GOAL!\n%s\n%s", details.Scoreline(), e.hashtags)
			if e.post(ctx, "goal", text) {
				st.SetStrings(goalsKey, append(posted, goalID))
			}
			// At most one new goal per run; the rest are picked up by
			// the next poll, which keeps a burst of goals from turning
			// into a burst of posts.
			break
		}

		if details.IsHalftime() && !st.Bool(htKey) {
			text := fmt.Sprintf("⏸️ Halftime: %s\n%s", details.Scoreline(), e.hashtags)
			if e.post(ctx, "halftime", text) {
				st.SetBool(htKey)
			}
		}
	}

	if details.IsFinished() && !st.Bool(ftKey) {
		text := fmt.Sprintf("🔔 Full-time: %s\n%s", details.Scoreline(), e.hashtags)
		if e.post(ctx, "fulltime", text) {
			st.SetBool(ftKey)
			// The match will not be revisited; drop its goal set so the
			// state file does not grow one list per played match.
			st.Delete(goalsKey)
		}
	}

	return nil
}

// postNews publishes the first unseen feed item and absorbs every
// fetched id into the seen-set, posted or not, so a backlog of old
// items never floods later runs. An item whose post failed stays out of
// the set and is retried next run.
func (e *Engine) postNews(ctx context.Context, st state.Flags) {
	items, err := e.newsSrc.Latest(ctx)
	if err != nil {
		slog.Warn("Failed to fetch news feed", "error", err)
		metrics.Global.IncrementFetchFailures()
		return
	}

	seen := st.Strings("news_ids")
	if seen == nil {
		seen = []string{}
	}
	seenSet := make(map[string]bool, len(seen))
	for _, id := range seen {
		seenSet[id] = true
	}

	posted := false
	for _, item := range items {
		if seenSet[item.ID] {
			metrics.Global.IncrementDuplicatesSkipped()
			continue
		}
		if !posted {
			text := fmt.Sprintf("📰 %s\n%s", item.Title, item.Link)
			if !e.post(ctx, "news", text) {
				continue
			}
			posted = true
		}
		seen = append(seen, item.ID)
		seenSet[item.ID] = true
	}

	st.SetStrings("news_ids", seen)
}

func (e *Engine) post(ctx context.Context, category, text string) bool {
	id, err := e.pub.Post(ctx, text)
	if err != nil {
		slog.Error("Failed to post update", "category", category, "error", err)
		metrics.Global.IncrementPostFailures()
		return false
	}
	slog.Info("Posted update", "category", category, "id", id)
	metrics.Global.IncrementPostsSent()
	return true
}
