// Package slate orchestrates one dashboard render: audit newly completed
// games, derive fatigue context from the adjacent date, and produce a
// prediction for every game on the requested day.
package slate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/edgelab/internal/config"
	"github.com/aristath/edgelab/internal/domain"
	"github.com/aristath/edgelab/internal/learning"
	"github.com/aristath/edgelab/internal/ratings"
	"github.com/aristath/edgelab/pkg/metrics"
)

// Entry pairs a raw game with the engine's projection for it.
type Entry struct {
	Game       domain.Game       `json:"game"`
	Prediction domain.Prediction `json:"prediction"`
}

// Response is the full UI-facing payload for one date.
type Response struct {
	Date         string                `json:"date"`
	Games        []Entry               `json:"games"`
	FeedDegraded bool                  `json:"feed_degraded"` // Passive notice only; an empty slate still renders
	Accuracy     domain.AccuracyStats  `json:"accuracy"`
	TopTeams     []domain.TeamStanding `json:"top_teams"`
}

// Service wires the feed, learner, store, and predictor into the render
// control flow.
type Service struct {
	feed      domain.GameFeed
	store     *ratings.Store
	learner   *learning.Engine
	predictor domain.Predictor
	cfg       config.Model
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// New creates a slate service.
func New(feed domain.GameFeed, store *ratings.Store, learner *learning.Engine, predictor domain.Predictor, cfg config.Model, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		feed:      feed,
		store:     store,
		learner:   learner,
		predictor: predictor,
		cfg:       cfg,
		metrics:   m,
		log:       log.With().Str("component", "slate").Logger(),
	}
}

// Slate audits any newly completed games, then predicts every game on the
// requested date. Feed failures degrade to an empty slate with the
// degraded flag set; they are never surfaced as errors.
func (s *Service) Slate(ctx context.Context, date time.Time) Response {
	// Fold any newly completed games in before predicting, so ratings
	// are as fresh as the feed allows. Failures inside the pass are
	// already degraded and logged.
	s.learner.Audit(ctx)

	res := s.feed.FetchDay(ctx, date)
	fatigue := s.fatigueFor(ctx, date, res.Games)

	entries := make([]Entry, 0, len(res.Games))
	for _, game := range res.Games {
		pred := s.predictor.Predict(game, s.store.Get(game.HomeTeam), s.store.Get(game.AwayTeam), fatigue)
		if s.metrics != nil {
			s.metrics.PredictionsServed.Inc()
		}
		entries = append(entries, Entry{Game: game, Prediction: pred})
	}

	return Response{
		Date:         date.Format("2006-01-02"),
		Games:        entries,
		FeedDegraded: res.Failed(),
		Accuracy:     s.store.Accuracy(),
		TopTeams:     s.store.TopTeams(s.cfg.TopTeams),
	}
}

// fatigueFor derives the rest context for a slate from the previous day's
// schedule: teams that played yesterday are on a back-to-back, everyone
// else on today's slate is rested. A failed fetch of the prior day just
// yields an empty context.
func (s *Service) fatigueFor(ctx context.Context, date time.Time, todays []domain.Game) domain.FatigueContext {
	fatigue := domain.EmptyFatigue()

	prev := s.feed.FetchDay(ctx, date.AddDate(0, 0, -1))
	if prev.Failed() {
		if s.metrics != nil {
			s.metrics.FeedFailures.Inc()
		}
		return fatigue
	}

	for _, g := range prev.Games {
		fatigue.BackToBack[g.HomeTeam] = true
		fatigue.BackToBack[g.AwayTeam] = true
	}
	for _, g := range todays {
		if !fatigue.BackToBack[g.HomeTeam] {
			fatigue.Rested[g.HomeTeam] = true
		}
		if !fatigue.BackToBack[g.AwayTeam] {
			fatigue.Rested[g.AwayTeam] = true
		}
	}

	return fatigue
}
