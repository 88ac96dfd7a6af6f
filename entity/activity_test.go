package entity

import (
	"testing"
	"time"

	"eventreg/lib/apperr"

	"github.com/stretchr/testify/assert"
)

func span(start, end string) *Activity {
	s, _ := time.Parse(time.DateOnly, start)
	e, _ := time.Parse(time.DateOnly, end)
	return &Activity{StartAt: s, EndAt: e}
}

func TestOverlaps(t *testing.T) {
	a1 := span("2025-01-10", "2025-01-15")

	assert.True(t, a1.Overlaps(span("2025-01-12", "2025-01-20")))
	assert.True(t, a1.Overlaps(span("2025-01-15", "2025-01-16")), "shared end day")
	assert.True(t, a1.Overlaps(span("2025-01-01", "2025-01-31")), "containing")
	assert.False(t, a1.Overlaps(span("2025-02-01", "2025-02-05")))
	assert.False(t, a1.Overlaps(span("2025-01-01", "2025-01-09")))
}

func TestLedgerConsistent(t *testing.T) {
	capacity := 3
	a := &Activity{Capacity: &capacity, Accepted: 1, Open: 2, Review: Review{Status: StatusApproved}}
	assert.True(t, a.LedgerConsistent())

	a.Open = 1
	assert.False(t, a.LedgerConsistent())

	a.Status = StatusPending
	assert.True(t, a.LedgerConsistent())

	a.Accepted = -1
	assert.False(t, a.LedgerConsistent())
}

func TestActivityRequestValidation(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	valid := ActivityRequest{
		Name:         "Spring Hackathon",
		Category:     "Hackathon",
		StartAt:      start,
		EndAt:        start.Add(48 * time.Hour),
		Location:     "Main hall",
		Mode:         "offline",
		Organization: "CS club",
	}
	assert.NoError(t, valid.Bind(nil))

	badCategory := valid
	badCategory.Category = "Party"
	assert.ErrorIs(t, badCategory.Bind(nil), apperr.ErrValidation)

	reversed := valid
	reversed.EndAt = start.Add(-time.Hour)
	err := reversed.Bind(nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var coded *apperr.Error
	if assert.ErrorAs(t, err, &coded) {
		assert.Equal(t, "end_date", coded.Metadata["fields"])
	}
}

func TestFilterMatchers(t *testing.T) {
	f := Filter{SubmitterLike: "cs0"}
	assert.True(t, f.MatchSubmitter("21CS001"))
	assert.False(t, f.MatchSubmitter("21EC001"))

	assert.False(t, Filter{}.MatchStatus(StatusDeleted))
	assert.True(t, Filter{IncludeDeleted: true}.MatchStatus(StatusDeleted))
	assert.True(t, Filter{Statuses: []Status{StatusDeleted}}.MatchStatus(StatusDeleted))
	assert.True(t, Filter{CohortYears: []int{2025}}.MatchCohort(2025))
	assert.False(t, Filter{CohortYears: []int{2025}}.MatchCohort(2026))
}
