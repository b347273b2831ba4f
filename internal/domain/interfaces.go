package domain

import (
	"context"
	"time"
)

// DayResult is the typed outcome of one scoreboard fetch. A failed fetch
// is distinguishable from a genuinely empty slate so callers and tests
// can tell the two apart, while the soft-degradation behaviour (treat as
// empty, keep going) is preserved at every call site.
type DayResult struct {
	Date  time.Time
	Games []Game
	Err   error
}

// Failed reports whether the fetch degraded to an empty result because of
// a feed error rather than an empty schedule.
func (r DayResult) Failed() bool {
	return r.Err != nil
}

// GameFeed is the upstream scoreboard collaborator, queried by calendar
// date. Implementations must never panic on upstream garbage: a broken
// day comes back as a DayResult with Err set and no games.
type GameFeed interface {
	FetchDay(ctx context.Context, date time.Time) DayResult
}

// Predictor produces a prediction for a single matchup from current
// ratings. It is pure: it never mutates persisted state.
type Predictor interface {
	Predict(game Game, home, away TeamRating, fatigue FatigueContext) Prediction
}
