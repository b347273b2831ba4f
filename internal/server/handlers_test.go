package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/edgelab/internal/config"
	"github.com/aristath/edgelab/internal/domain"
	"github.com/aristath/edgelab/internal/learning"
	"github.com/aristath/edgelab/internal/prediction"
	"github.com/aristath/edgelab/internal/ratings"
	"github.com/aristath/edgelab/internal/slate"
)

type stubFeed struct {
	days map[string]domain.DayResult
}

type stubChecker struct {
	err error
}

func (c *stubChecker) HealthCheck(ctx context.Context) error {
	return c.err
}

func (f *stubFeed) FetchDay(ctx context.Context, date time.Time) domain.DayResult {
	key := date.Format("2006-01-02")
	if res, ok := f.days[key]; ok {
		res.Date = date
		return res
	}
	return domain.DayResult{Date: date, Games: []domain.Game{}}
}

func newTestServer(t *testing.T, feed domain.GameFeed) (*Server, *ratings.Store) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := ratings.New(db, 50.0, zerolog.Nop())
	require.NoError(t, err)
	store.Load()

	cfg := &config.Config{
		Port:  0,
		Model: config.DefaultModel(),
	}
	cfg.Model.Simulations = 5000

	predictor := prediction.New(cfg.Model, 42)
	learner := learning.New(feed, store, predictor, cfg.Model, nil, zerolog.Nop())
	slateSvc := slate.New(feed, store, learner, predictor, cfg.Model, nil, zerolog.Nop())

	srv := New(Config{
		Port:    0,
		DevMode: true,
		Log:     zerolog.Nop(),
		Config:  cfg,
		Slate:   slateSvc,
		Ratings: store,
		DB:      &stubChecker{},
	})
	return srv, store
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubFeed{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleHealthReportsUnhealthyStore(t *testing.T) {
	srv, _ := newTestServer(t, &stubFeed{})
	srv.db = &stubChecker{err: errors.New("integrity check failed")}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestHandleSlateBadDate(t *testing.T) {
	srv, _ := newTestServer(t, &stubFeed{})

	req := httptest.NewRequest(http.MethodGet, "/api/slate?date=01-15-2026", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSlateRendersGames(t *testing.T) {
	feed := &stubFeed{days: map[string]domain.DayResult{
		"2026-01-15": {Games: []domain.Game{
			{ID: "g1", HomeTeam: "Lakers", AwayTeam: "Celtics", Status: "7:30 PM ET"},
		}},
	}}
	srv, _ := newTestServer(t, feed)

	req := httptest.NewRequest(http.MethodGet, "/api/slate?date=2026-01-15", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp slate.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-01-15", resp.Date)
	require.Len(t, resp.Games, 1)
	assert.NotEmpty(t, resp.Games[0].Prediction.Winner)
}

func TestHandleSlateEmptyDayStillRenders(t *testing.T) {
	srv, _ := newTestServer(t, &stubFeed{})

	req := httptest.NewRequest(http.MethodGet, "/api/slate?date=2026-07-04", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp slate.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Games)
}

func TestHandleStandings(t *testing.T) {
	srv, store := newTestServer(t, &stubFeed{})

	require.NoError(t, store.Mutate(func(snap *domain.Snapshot) bool {
		snap.Teams["Nuggets"] = domain.TeamRating{Strength: 63.5, Streak: 5}
		return true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/standings", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Standings []domain.TeamStanding `json:"standings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Standings, 1)
	assert.Equal(t, "Nuggets", body.Standings[0].Team)
	assert.Equal(t, 63.5, body.Standings[0].Strength)
}

func TestHandleAccuracy(t *testing.T) {
	srv, store := newTestServer(t, &stubFeed{})

	require.NoError(t, store.Mutate(func(snap *domain.Snapshot) bool {
		snap.Hits = 6
		snap.Misses = 4
		return true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accuracy", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.AccuracyStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 6, stats.Hits)
	assert.Equal(t, 60.0, stats.Accuracy)
}
