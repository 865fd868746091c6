// Package app wires the clients together and drives one poll cycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voken3959/tottenham/internal/config"
	"github.com/voken3959/tottenham/internal/match"
	"github.com/voken3959/tottenham/internal/metrics"
	"github.com/voken3959/tottenham/internal/news"
	"github.com/voken3959/tottenham/internal/notify"
	"github.com/voken3959/tottenham/internal/sofascore"
	"github.com/voken3959/tottenham/internal/state"
	"github.com/voken3959/tottenham/internal/telegram"
	"github.com/voken3959/tottenham/internal/twitter"
)

// Run executes one run-to-completion poll: load state, select the
// relevant match, emit whatever is new, persist state. The returned
// error is what the entrypoint turns into an exit code under
// STRICT_EXIT.
func Run(cfg *config.Config) error {
	start := time.Now()
	ctx := context.Background()

	store, closeStore, err := newStore(cfg)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}
	defer closeStore()

	st, err := store.Load()
	if err != nil {
		// A broken state file means duplicates, not a dead run.
		slog.Warn("State load failed, continuing with empty state", "error", err)
	}

	loc := cfg.Location()
	sports := sofascore.NewClient(sofascore.ClientConfig{
		BaseURL:   cfg.SofascoreBaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
	}, cfg.TeamID)
	newsClient := news.NewClient(cfg.NewsFeedURL, cfg.NewsLimit, cfg.RequestTimeout, cfg.UserAgent)

	var pub notify.Publisher = twitter.NewClient(twitter.ClientConfig{
		Credentials: twitter.Credentials{
			APIKey:       cfg.TwitterAPIKey,
			APISecret:    cfg.TwitterAPISecret,
			AccessToken:  cfg.TwitterAccessToken,
			AccessSecret: cfg.TwitterAccessSecret,
		},
		Timeout: cfg.RequestTimeout,
	})
	if cfg.MirrorEnabled() {
		mirror, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Warn("Telegram mirror disabled", "error", err)
		} else {
			pub = &mirroredPublisher{primary: pub, mirror: mirror}
		}
	}

	selector := match.NewSelector(sports, cfg.TeamID, cfg.MatchWindow, loc)
	engine := notify.NewEngine(sports, newsClient, pub, notify.EngineConfig{
		Hashtags:    cfg.Hashtags,
		Location:    loc,
		PrematchMin: cfg.PrematchMinMin,
		PrematchMax: cfg.PrematchMaxMin,
	})

	sel := selector.Select(ctx)
	engine.Run(ctx, sel, st)

	if err := store.Save(st); err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("failed to persist state: %w", err)
	}

	metrics.Global.RecordRun(time.Since(start))
	slog.Info("Run complete", "mode", sel.Mode, "duration", time.Since(start))
	return nil
}

func newStore(cfg *config.Config) (state.Store, func(), error) {
	if cfg.StateDSN != "" {
		ps, err := state.NewPostgresStore(cfg.StateDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open state database: %w", err)
		}
		return ps, func() { ps.Close() }, nil
	}
	return state.NewFileStore(cfg.StatePath), func() {}, nil
}

// mirroredPublisher forwards every successfully published post to the
// Telegram mirror. Mirror failures are logged and swallowed; dedupe
// state follows the primary platform only.
type mirroredPublisher struct {
	primary notify.Publisher
	mirror  *telegram.Notifier
}

func (p *mirroredPublisher) Post(ctx context.Context, text string) (string, error) {
	id, err := p.primary.Post(ctx, text)
	if err != nil {
		return "", err
	}
	if merr := p.mirror.Send(text); merr != nil {
		slog.Warn("Failed to mirror post to Telegram", "error", merr)
	}
	return id, nil
}
