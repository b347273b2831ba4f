// Package domain provides core domain models and types.
// The domain layer is pure: no infrastructure imports.
package domain

import "time"

// MarketLine represents the posted betting market for a game.
// Spread is home-relative and signed: negative means the home side is
// favored by that many points (the usual book convention, e.g. "BOS -3.5"
// with Boston at home yields Spread -3.5).
type MarketLine struct {
	Favored string  `json:"favored"` // Favored team abbreviation
	Spread  float64 `json:"spread"`  // Signed, home-relative
	Total   float64 `json:"total"`   // Over/under total points
}

// Game represents one scheduled, live, or completed game as served by the
// scoreboard feed. Games are transient; they are never persisted.
type Game struct {
	ID        string      `json:"id"`
	Date      time.Time   `json:"date"`
	HomeTeam  string      `json:"home_team"`
	AwayTeam  string      `json:"away_team"`
	HomeAbbr  string      `json:"home_abbr"`
	AwayAbbr  string      `json:"away_abbr"`
	HomeScore int         `json:"home_score"`
	AwayScore int         `json:"away_score"`
	Completed bool        `json:"completed"`
	Status    string      `json:"status"` // Human-readable, e.g. "Final", "7:02 - 3rd"
	Line      *MarketLine `json:"line,omitempty"`
	Leaders   string      `json:"leaders,omitempty"` // Top performer blurb when the feed provides one
}

// HomeWon reports whether the home side won. Only meaningful for
// completed games.
func (g Game) HomeWon() bool {
	return g.HomeScore > g.AwayScore
}

// Margin returns the home-relative score differential.
func (g Game) Margin() int {
	return g.HomeScore - g.AwayScore
}

// TeamRating is the persisted per-team state. Teams are created implicitly
// on first reference; Strength is unbounded and may go negative after a
// long losing run.
type TeamRating struct {
	Strength float64 `json:"strength" msgpack:"strength"`
	Streak   int     `json:"streak" msgpack:"streak"`
}

// Snapshot is the full persisted brain state: team ratings, the audited
// game ledger, and the cumulative accuracy counters.
type Snapshot struct {
	Teams   map[string]TeamRating `json:"teams" msgpack:"teams"`
	Audited []string              `json:"audited" msgpack:"audited"`
	Hits    int                   `json:"hits" msgpack:"hits"`
	Misses  int                   `json:"misses" msgpack:"misses"`
}

// NewSnapshot returns an empty snapshot ready for use.
func NewSnapshot() Snapshot {
	return Snapshot{
		Teams:   make(map[string]TeamRating),
		Audited: []string{},
	}
}

// IsAudited reports whether a game identifier is already in the ledger.
func (s Snapshot) IsAudited(gameID string) bool {
	for _, id := range s.Audited {
		if id == gameID {
			return true
		}
	}
	return false
}

// MarkAudited appends a game identifier to the ledger and truncates the
// ledger to the most recent window entries. Identifiers that fall off the
// window are forgotten; a feed re-serving one could be re-audited. That
// is a documented accepted risk, not a silent bug.
func (s *Snapshot) MarkAudited(gameID string, window int) {
	s.Audited = append(s.Audited, gameID)
	if window > 0 && len(s.Audited) > window {
		s.Audited = s.Audited[len(s.Audited)-window:]
	}
}

// Accuracy returns hits/(hits+misses), defined as 0 when nothing has been
// audited yet.
func (s *Snapshot) Accuracy() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Clone returns a deep copy of the snapshot so read-only consumers can
// hold a view without racing the learning engine.
func (s *Snapshot) Clone() Snapshot {
	c := Snapshot{
		Teams:   make(map[string]TeamRating, len(s.Teams)),
		Audited: make([]string, len(s.Audited)),
		Hits:    s.Hits,
		Misses:  s.Misses,
	}
	for name, r := range s.Teams {
		c.Teams[name] = r
	}
	copy(c.Audited, s.Audited)
	return c
}

// FatigueContext captures schedule-derived rest state for one slate date.
// BackToBack holds teams that played the previous calendar day; Rested
// holds teams on the slate that did not. The rest advantage only applies
// relative to an opponent on a back-to-back.
type FatigueContext struct {
	BackToBack map[string]bool `json:"back_to_back"`
	Rested     map[string]bool `json:"rested"`
}

// EmptyFatigue returns a context with no fatigue information, used when
// grading historical games where rest state is unknown.
func EmptyFatigue() FatigueContext {
	return FatigueContext{
		BackToBack: map[string]bool{},
		Rested:     map[string]bool{},
	}
}

// Prediction is the engine's full output for a single matchup.
type Prediction struct {
	Winner         string   `json:"winner"`
	WinnerHome     bool     `json:"winner_home"`
	Confidence     float64  `json:"confidence"`       // Moneyline confidence %, one decimal, [50,100]
	Margin         float64  `json:"margin"`           // Expected home-relative margin
	ProjHomeScore  float64  `json:"proj_home_score"`
	ProjAwayScore  float64  `json:"proj_away_score"`
	ProjTotal      float64  `json:"proj_total"`
	SpreadChance   *float64 `json:"spread_confidence,omitempty"` // Cover probability %, [0,100]
	IsValue        *bool    `json:"is_value,omitempty"`
	Recommendation string   `json:"recommendation"` // "moneyline" or "spread"
	HomeFatigued   bool     `json:"home_fatigued"`
	AwayFatigued   bool     `json:"away_fatigued"`
	Rationale      string   `json:"rationale"`
}

// TeamStanding is one row of the strength leaderboard.
type TeamStanding struct {
	Team     string  `json:"team"`
	Strength float64 `json:"strength"`
	Streak   int     `json:"streak"`
}

// AccuracyStats summarizes the engine's self-graded track record.
type AccuracyStats struct {
	Hits     int     `json:"hits"`
	Misses   int     `json:"misses"`
	Accuracy float64 `json:"accuracy"` // Percentage, 0 when no games audited
}
