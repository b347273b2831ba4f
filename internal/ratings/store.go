// Package ratings owns the persisted team-strength state ("the brain").
// The full snapshot is held in memory and serialized to a single
// msgpack-encoded blob row in SQLite. The learning engine is the only
// writer; everything else gets read-only copies.
package ratings

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/edgelab/internal/database"
	"github.com/aristath/edgelab/internal/domain"
)

// snapshotKey is the fixed row identifier for the persisted blob.
const snapshotKey = "nba"

const schema = `
CREATE TABLE IF NOT EXISTS brain (
	id         TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Store is the injectable rating store. It guards the in-memory snapshot
// with a mutex so concurrent refresh sessions and the scheduled audit
// cannot interleave mutations (single-writer serialization).
type Store struct {
	db            *sql.DB
	log           zerolog.Logger
	defaultRating float64

	mu   sync.RWMutex
	snap domain.Snapshot
}

// New creates a rating store on the given database connection and ensures
// the backing table exists.
func New(db *sql.DB, defaultRating float64, log zerolog.Logger) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create brain table: %w", err)
	}

	return &Store{
		db:            db,
		log:           log.With().Str("component", "ratings").Logger(),
		defaultRating: defaultRating,
		snap:          domain.NewSnapshot(),
	}, nil
}

// Load reads the persisted snapshot into memory. Missing row, undecodable
// blob, or a blob with no team map all fail soft to a fresh empty
// snapshot; Load never returns an error to the caller.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT data FROM brain WHERE id = ?", snapshotKey).Scan(&data)
	if err == sql.ErrNoRows {
		s.log.Info().Msg("No persisted brain found, starting fresh")
		s.snap = domain.NewSnapshot()
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read persisted brain, starting fresh")
		s.snap = domain.NewSnapshot()
		return
	}

	var snap domain.Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		s.log.Warn().Err(err).Msg("Persisted brain is corrupt, starting fresh")
		s.snap = domain.NewSnapshot()
		return
	}

	// Tolerate partially formed blobs from older versions
	if snap.Teams == nil {
		snap.Teams = make(map[string]domain.TeamRating)
	}
	if snap.Audited == nil {
		snap.Audited = []string{}
	}

	s.snap = snap
	s.log.Info().
		Int("teams", len(snap.Teams)).
		Int("audited", len(snap.Audited)).
		Int("hits", snap.Hits).
		Int("misses", snap.Misses).
		Msg("Loaded persisted brain")
}

// save overwrites the persisted blob with the current in-memory snapshot.
// Callers must hold the write lock.
func (s *Store) save() error {
	data, err := msgpack.Marshal(&s.snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return database.WithTransaction(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO brain (id, data, updated_at) VALUES (?, ?, ?)",
			snapshotKey, data, time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to persist snapshot: %w", err)
		}
		return nil
	})
}

// Mutate runs fn against the live snapshot under the write lock. When fn
// reports that it changed anything, the snapshot is persisted in the same
// critical section; when nothing changed the write is skipped entirely.
func (s *Store) Mutate(fn func(snap *domain.Snapshot) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(&s.snap) {
		return nil
	}
	return s.save()
}

// Get returns the rating for a team, or the configured default for a team
// that has never been observed.
func (s *Store) Get(team string) domain.TeamRating {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.snap.Teams[team]; ok {
		return r
	}
	return domain.TeamRating{Strength: s.defaultRating}
}

// Snapshot returns a deep copy of the current state for read-only
// consumers.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Accuracy returns the engine's self-graded track record as percentages.
func (s *Store) Accuracy() domain.AccuracyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.AccuracyStats{
		Hits:     s.snap.Hits,
		Misses:   s.snap.Misses,
		Accuracy: round1(s.snap.Accuracy() * 100),
	}
}

// TopTeams returns the n strongest teams, strongest first. Ties break
// alphabetically so the leaderboard is stable between renders.
func (s *Store) TopTeams(n int) []domain.TeamStanding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	standings := make([]domain.TeamStanding, 0, len(s.snap.Teams))
	for name, r := range s.snap.Teams {
		standings = append(standings, domain.TeamStanding{
			Team:     name,
			Strength: r.Strength,
			Streak:   r.Streak,
		})
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Strength != standings[j].Strength {
			return standings[i].Strength > standings[j].Strength
		}
		return standings[i].Team < standings[j].Team
	})

	if n > 0 && len(standings) > n {
		standings = standings[:n]
	}
	return standings
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
