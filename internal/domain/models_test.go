package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotAuditLedger(t *testing.T) {
	snap := NewSnapshot()

	assert.False(t, snap.IsAudited("g1"))

	snap.MarkAudited("g1", 100)
	assert.True(t, snap.IsAudited("g1"))
	assert.False(t, snap.IsAudited("g2"))
}

func TestSnapshotLedgerWindow(t *testing.T) {
	snap := NewSnapshot()

	for _, id := range []string{"a", "b", "c", "d"} {
		snap.MarkAudited(id, 3)
	}

	assert.Equal(t, []string{"b", "c", "d"}, snap.Audited)
	assert.False(t, snap.IsAudited("a"))
}

func TestSnapshotAccuracy(t *testing.T) {
	snap := NewSnapshot()
	assert.Equal(t, 0.0, snap.Accuracy())

	snap.Hits = 3
	snap.Misses = 1
	assert.Equal(t, 0.75, snap.Accuracy())

	// Never negative, never above 1 for reachable states
	assert.GreaterOrEqual(t, snap.Accuracy(), 0.0)
	assert.LessOrEqual(t, snap.Accuracy(), 1.0)
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	snap := NewSnapshot()
	snap.Teams["Lakers"] = TeamRating{Strength: 53.5, Streak: 2}
	snap.MarkAudited("g1", 100)
	snap.Hits = 5

	clone := snap.Clone()
	clone.Teams["Lakers"] = TeamRating{Strength: -1}
	clone.Audited[0] = "tampered"
	clone.Hits = 99

	assert.Equal(t, TeamRating{Strength: 53.5, Streak: 2}, snap.Teams["Lakers"])
	assert.Equal(t, "g1", snap.Audited[0])
	assert.Equal(t, 5, snap.Hits)
}

func TestGameHelpers(t *testing.T) {
	g := Game{HomeScore: 110, AwayScore: 100}
	assert.True(t, g.HomeWon())
	assert.Equal(t, 10, g.Margin())

	g = Game{HomeScore: 95, AwayScore: 102}
	assert.False(t, g.HomeWon())
	assert.Equal(t, -7, g.Margin())
}

func TestDayResultFailed(t *testing.T) {
	ok := DayResult{Games: []Game{}}
	assert.False(t, ok.Failed())

	failed := DayResult{Err: assert.AnError}
	assert.True(t, failed.Failed())
	assert.Empty(t, failed.Games)
}
