package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/voken3959/tottenham/internal/match"
	"github.com/voken3959/tottenham/internal/news"
	"github.com/voken3959/tottenham/internal/sofascore"
	"github.com/voken3959/tottenham/internal/state"
)

var testNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	posts []string
	err   error
}

func (f *fakePublisher) Post(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.posts = append(f.posts, text)
	return fmt.Sprintf("id-%d", len(f.posts)), nil
}

type fakeData struct {
	details      *sofascore.Event
	incidents    *sofascore.Incidents
	detailsErr   error
	incidentsErr error
}

func (f *fakeData) EventDetails(ctx context.Context, eventID int64) (*sofascore.Event, error) {
	return f.details, f.detailsErr
}

func (f *fakeData) EventIncidents(ctx context.Context, eventID int64) (*sofascore.Incidents, error) {
	return f.incidents, f.incidentsErr
}

type fakeNews struct {
	items []news.Item
	err   error
}

func (f *fakeNews) Latest(ctx context.Context) ([]news.Item, error) {
	return f.items, f.err
}

func newTestEngine(data MatchData, src NewsSource, pub Publisher) *Engine {
	e := NewEngine(data, src, pub, EngineConfig{
		Hashtags:    "#COYS #THFC",
		Location:    time.UTC,
		PrematchMin: 55,
		PrematchMax: 65,
	})
	e.now = func() time.Time { return testNow }
	return e
}

func upcomingEvent(id int64, kickoff time.Time) *sofascore.Event {
	return &sofascore.Event{
		ID:             id,
		HomeTeam:       sofascore.Team{ID: 17, ShortName: "Tottenham"},
		AwayTeam:       sofascore.Team{ID: 42, ShortName: "Arsenal"},
		StartTimestamp: kickoff.Unix(),
		Status:         sofascore.Status{Type: "notstarted"},
	}
}

func liveEvent(id int64, description string) *sofascore.Event {
	ev := upcomingEvent(id, testNow.Add(-time.Hour))
	ev.Status = sofascore.Status{Type: "inprogress", Description: description}
	ev.HomeScore = sofascore.Score{Current: 2}
	ev.AwayScore = sofascore.Score{Current: 1}
	return ev
}

func goals(ids ...int64) *sofascore.Incidents {
	inc := &sofascore.Incidents{}
	for i, playerID := range ids {
		inc.HomeIncidents = append(inc.HomeIncidents, sofascore.Incident{
			Type:   "goal",
			Time:   10 + i*10,
			IsHome: true,
			Player: sofascore.Player{ID: playerID},
		})
	}
	return inc
}

func TestPrematchWindowBoundaries(t *testing.T) {
	cases := []struct {
		minutes int
		want    bool
	}{
		{54, false},
		{55, true},
		{60, true},
		{65, true},
		{66, false},
	}

	for _, c := range cases {
		pub := &fakePublisher{}
		engine := newTestEngine(&fakeData{}, &fakeNews{}, pub)
		ev := upcomingEvent(100, testNow.Add(time.Duration(c.minutes)*time.Minute))
		st := state.Flags{}

		engine.Run(context.Background(), match.Selection{Mode: match.ModeUpcoming, Event: ev}, st)

		posted := len(pub.posts) == 1
		if posted != c.want {
			t.Errorf("minutes=%d: posted=%v, want %v", c.minutes, posted, c.want)
		}
		if st.Bool("prematch_posted_100") != c.want {
			t.Errorf("minutes=%d: flag=%v, want %v", c.minutes, st.Bool("prematch_posted_100"), c.want)
		}
	}
}

func TestPrematchScenarioSixtyMinutes(t *testing.T) {
	pub := &fakePublisher{}
	engine := newTestEngine(&fakeData{}, &fakeNews{}, pub)
	ev := upcomingEvent(100, testNow.Add(3600*time.Second))
	st := state.Flags{}

	engine.Run(context.Background(), match.Selection{Mode: match.ModeUpcoming, Event: ev}, st)

	if len(pub.posts) != 1 {
		t.Fatalf("expected exactly 1 post, got %d", len(pub.posts))
	}
	if !strings.Contains(pub.posts[0], "Tottenham vs Arsenal") {
		t.Errorf("reminder text missing fixture line: %q", pub.posts[0])
	}
	if !st.Bool("prematch_posted_100") {
		t.Error("prematch_posted_100 not set")
	}
}

func TestPrematchIdempotent(t *testing.T) {
	pub := &fakePublisher{}
	engine := newTestEngine(&fakeData{}, &fakeNews{}, pub)
	ev := upcomingEvent(100, testNow.Add(time.Hour))
	st := state.Flags{}
	sel := match.Selection{Mode: match.ModeUpcoming, Event: ev}

	engine.Run(context.Background(), sel, st)
	engine.Run(context.Background(), sel, st)

	if len(pub.posts) != 1 {
		t.Errorf("second identical run must not repost, got %d posts", len(pub.posts))
	}
}

func TestGoalCapOnePerRun(t *testing.T) {
	pub := &fakePublisher{}
	data := &fakeData{details: liveEvent(200, "1st half"), incidents: goals(1, 2, 3)}
	engine := newTestEngine(data, &fakeNews{}, pub)
	st := state.Flags{}
	sel := match.Selection{Mode: match.ModeLive, Event: data.details}

	engine.Run(context.Background(), sel, st)

	if len(pub.posts) != 1 {
		t.Fatalf("three new goals must yield exactly 1 post, got %d", len(pub.posts))
	}
	if got := st.Strings("posted_goals_200"); len(got) != 1 {
		t.Fatalf("exactly 1 goal id should be stored, got %v", got)
	}

	// The remaining goals drain one per subsequent run.
	engine.Run(context.Background(), sel, st)
	engine.Run(context.Background(), sel, st)
	if len(pub.posts) != 3 || len(st.Strings("posted_goals_200")) != 3 {
		t.Errorf("after 3 runs: posts=%d stored=%d, want 3/3", len(pub.posts), len(st.Strings("posted_goals_200")))
	}

	// All caught up: nothing more to say.
	engine.Run(context.Background(), sel, st)
	if len(pub.posts) != 3 {
		t.Errorf("idempotent run posted again, got %d posts", len(pub.posts))
	}
}

func TestGoalPostFailureLeavesStateUntouched(t *testing.T) {
	pub := &fakePublisher{err: errors.New("rate limited")}
	data := &fakeData{details: liveEvent(200, "1st half"), incidents: goals(1)}
	engine := newTestEngine(data, &fakeNews{}, pub)
	st := state.Flags{}

	engine.Run(context.Background(), match.Selection{Mode: match.ModeLive, Event: data.details}, st)

	if ids := st.Strings("posted_goals_200"); len(ids) != 0 {
		t.Errorf("failed post must not record the goal id, got %v", ids)
	}
}

func TestHalftimeOnce(t *testing.T) {
	pub := &fakePublisher{}
	data := &fakeData{details: liveEvent(200, "Halftime"), incidents: &sofascore.Incidents{}}
	engine := newTestEngine(data, &fakeNews{}, pub)
	st := state.Flags{}
	sel := match.Selection{Mode: match.ModeLive, Event: data.details}

	engine.Run(context.Background(), sel, st)
	engine.Run(context.Background(), sel, st)

	if len(pub.posts) != 1 {
		t.Fatalf("expected 1 halftime post across 2 runs, got %d", len(pub.posts))
	}
	if !strings.Contains(pub.posts[0], "Halftime: Tottenham 2–1 Arsenal") {
		t.Errorf("unexpected halftime text: %q", pub.posts[0])
	}
	if !st.Bool("ht_posted_200") {
		t.Error("ht_posted_200 not set")
	}
}

func TestFulltimePurgesGoalSet(t *testing.T) {
	finished := liveEvent(200, "Ended")
	finished.Status.Type = "finished"
	pub := &fakePublisher{}
	data := &fakeData{details: finished}
	engine := newTestEngine(data, &fakeNews{}, pub)

	st := state.Flags{}
	st.SetStrings("posted_goals_200", []string{"goal-1-10-true", "goal-2-20-true"})

	engine.Run(context.Background(), match.Selection{Mode: match.ModeLive, Event: finished}, st)

	if len(pub.posts) != 1 || !strings.Contains(pub.posts[0], "Full-time") {
		t.Fatalf("expected one full-time post, got %v", pub.posts)
	}
	if !st.Bool("ft_posted_200") {
		t.Error("ft_posted_200 not set")
	}
	if _, ok := st["posted_goals_200"]; ok {
		t.Error("posted_goals_200 should be purged at full-time")
	}
}

func TestLiveDetailsErrorAbortsLiveOnly(t *testing.T) {
	pub := &fakePublisher{}
	data := &fakeData{detailsErr: errors.New("upstream 500")}
	src := &fakeNews{items: []news.Item{{ID: "n1", Title: "Headline", Link: "https://example.com/1"}}}
	engine := newTestEngine(data, src, pub)
	st := state.Flags{}
	ev := liveEvent(200, "1st half")

	engine.Run(context.Background(), match.Selection{Mode: match.ModeLive, Event: ev}, st)

	// Live handling aborted, but news still went out.
	if len(pub.posts) != 1 || !strings.Contains(pub.posts[0], "Headline") {
		t.Errorf("news should still run after a live-fetch failure, posts=%v", pub.posts)
	}
}

func TestNewsSeenSetAbsorbsAllFetchedIDs(t *testing.T) {
	pub := &fakePublisher{}
	src := &fakeNews{items: []news.Item{
		{ID: "n1", Title: "First", Link: "https://example.com/1"},
		{ID: "n2", Title: "Second", Link: "https://example.com/2"},
		{ID: "n3", Title: "Third", Link: "https://example.com/3"},
	}}
	engine := newTestEngine(&fakeData{}, src, pub)
	st := state.Flags{}
	st.SetStrings("news_ids", []string{})

	engine.Run(context.Background(), match.Selection{Mode: match.ModeNone}, st)

	if len(pub.posts) != 1 || !strings.Contains(pub.posts[0], "First") {
		t.Fatalf("expected one post for the first unseen item, got %v", pub.posts)
	}
	seen := st.Strings("news_ids")
	if len(seen) != 3 {
		t.Fatalf("seen-set should hold all 3 fetched ids, got %v", seen)
	}

	// Nothing new next run.
	engine.Run(context.Background(), match.Selection{Mode: match.ModeNone}, st)
	if len(pub.posts) != 1 {
		t.Errorf("second run reposted news, got %d posts", len(pub.posts))
	}
}

func TestNewsPostFailureKeepsItemUnseen(t *testing.T) {
	pub := &fakePublisher{err: errors.New("down")}
	src := &fakeNews{items: []news.Item{{ID: "n1", Title: "First", Link: "https://example.com/1"}}}
	engine := newTestEngine(&fakeData{}, src, pub)
	st := state.Flags{}

	engine.Run(context.Background(), match.Selection{Mode: match.ModeNone}, st)

	if seen := st.Strings("news_ids"); len(seen) != 0 {
		t.Errorf("failed news post must stay unseen for retry, got %v", seen)
	}
}

func TestNewsFetchFailureIsNonFatal(t *testing.T) {
	pub := &fakePublisher{}
	engine := newTestEngine(&fakeData{}, &fakeNews{err: errors.New("feed down")}, pub)
	st := state.Flags{}
	st.SetStrings("news_ids", []string{"n1"})

	engine.Run(context.Background(), match.Selection{Mode: match.ModeNone}, st)

	if len(pub.posts) != 0 {
		t.Errorf("no posts expected on feed failure, got %v", pub.posts)
	}
	if seen := st.Strings("news_ids"); len(seen) != 1 {
		t.Errorf("seen-set must survive a feed failure, got %v", seen)
	}
}
