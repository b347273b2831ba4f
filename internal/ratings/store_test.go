package ratings

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/edgelab/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A pooled second connection would see its own empty :memory: database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStore(t *testing.T, db *sql.DB) *Store {
	store, err := New(db, 50.0, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestLoadMissingSnapshotStartsFresh(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db)

	store.Load()

	snap := store.Snapshot()
	assert.Empty(t, snap.Teams)
	assert.Empty(t, snap.Audited)
	assert.Equal(t, 0, snap.Hits)
	assert.Equal(t, 0, snap.Misses)
}

func TestLoadCorruptSnapshotStartsFresh(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db)

	// Write garbage where the msgpack blob should be
	_, err := db.Exec("INSERT INTO brain (id, data, updated_at) VALUES (?, ?, ?)", "nba", []byte("not msgpack at all"), 0)
	require.NoError(t, err)

	store.Load()

	snap := store.Snapshot()
	assert.Empty(t, snap.Teams)
	assert.Equal(t, 0, snap.Hits)
}

func TestMutatePersistsAndReloads(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db)
	store.Load()

	err := store.Mutate(func(snap *domain.Snapshot) bool {
		snap.Teams["Lakers"] = domain.TeamRating{Strength: 53.25, Streak: 2}
		snap.Audited = append(snap.Audited, "g1")
		snap.Hits = 3
		snap.Misses = 1
		return true
	})
	require.NoError(t, err)

	// A second store on the same database sees the persisted state
	reloaded := newTestStore(t, db)
	reloaded.Load()

	snap := reloaded.Snapshot()
	assert.Equal(t, domain.TeamRating{Strength: 53.25, Streak: 2}, snap.Teams["Lakers"])
	assert.Equal(t, []string{"g1"}, snap.Audited)
	assert.Equal(t, 3, snap.Hits)
	assert.Equal(t, 1, snap.Misses)
}

func TestMutateSkipsWriteWhenUnchanged(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db)
	store.Load()

	err := store.Mutate(func(snap *domain.Snapshot) bool {
		return false
	})
	require.NoError(t, err)

	// Nothing was persisted
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM brain").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestGetReturnsDefaultForUnseenTeam(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db)
	store.Load()

	r := store.Get("Nuggets")
	assert.Equal(t, 50.0, r.Strength)
	assert.Equal(t, 0, r.Streak)
}

func TestSnapshotIsACopy(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db)
	store.Load()

	require.NoError(t, store.Mutate(func(snap *domain.Snapshot) bool {
		snap.Teams["Heat"] = domain.TeamRating{Strength: 51}
		return true
	}))

	snap := store.Snapshot()
	snap.Teams["Heat"] = domain.TeamRating{Strength: -999}
	snap.Audited = append(snap.Audited, "rogue")

	assert.Equal(t, 51.0, store.Get("Heat").Strength)
	assert.Empty(t, store.Snapshot().Audited)
}

func TestTopTeamsOrdering(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db)
	store.Load()

	require.NoError(t, store.Mutate(func(snap *domain.Snapshot) bool {
		snap.Teams["Celtics"] = domain.TeamRating{Strength: 58.5}
		snap.Teams["Lakers"] = domain.TeamRating{Strength: 61.0, Streak: 4}
		snap.Teams["Pistons"] = domain.TeamRating{Strength: 42.0}
		snap.Teams["Bucks"] = domain.TeamRating{Strength: 58.5}
		return true
	}))

	top := store.TopTeams(3)
	require.Len(t, top, 3)
	assert.Equal(t, "Lakers", top[0].Team)
	// Equal strengths break alphabetically
	assert.Equal(t, "Bucks", top[1].Team)
	assert.Equal(t, "Celtics", top[2].Team)
}

func TestAccuracy(t *testing.T) {
	db := setupTestDB(t)
	store := newTestStore(t, db)
	store.Load()

	// Zero games audited yields 0, not NaN
	stats := store.Accuracy()
	assert.Equal(t, 0.0, stats.Accuracy)

	require.NoError(t, store.Mutate(func(snap *domain.Snapshot) bool {
		snap.Hits = 7
		snap.Misses = 3
		return true
	}))

	stats = store.Accuracy()
	assert.Equal(t, 7, stats.Hits)
	assert.Equal(t, 3, stats.Misses)
	assert.Equal(t, 70.0, stats.Accuracy)
}
