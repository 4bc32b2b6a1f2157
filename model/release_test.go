package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, StatusDraft.CanTransitionTo(StatusPending))
	assert.False(t, StatusDraft.CanTransitionTo(StatusPublished))

	assert.True(t, StatusPending.CanTransitionTo(StatusPublished))
	assert.True(t, StatusPending.CanTransitionTo(StatusNeedsInfo))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.False(t, StatusPending.CanTransitionTo(StatusTakedown))

	assert.True(t, StatusNeedsInfo.CanTransitionTo(StatusPending))
	assert.True(t, StatusNeedsInfo.CanTransitionTo(StatusPublished))
	assert.True(t, StatusNeedsInfo.CanTransitionTo(StatusRejected))

	assert.True(t, StatusPublished.CanTransitionTo(StatusTakedown))
	assert.False(t, StatusPublished.CanTransitionTo(StatusPending))

	assert.False(t, StatusRejected.CanTransitionTo(StatusPending))
	assert.False(t, StatusTakedown.CanTransitionTo(StatusPublished))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusTakedown.IsTerminal())
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusPublished.IsTerminal())
}

func TestSortedNotes(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	release := &Release{Notes: []InteractionNote{
		{ID: "old", Timestamp: base},
		{ID: "new", Timestamp: base.Add(2 * time.Hour)},
		{ID: "mid", Timestamp: base.Add(time.Hour)},
	}}

	sorted := release.SortedNotes()
	require.Len(t, sorted, 3)
	assert.Equal(t, "new", sorted[0].ID)
	assert.Equal(t, "mid", sorted[1].ID)
	assert.Equal(t, "old", sorted[2].ID)

	// The stored order is untouched.
	assert.Equal(t, "old", release.Notes[0].ID)
}

func TestValidateTracks(t *testing.T) {
	release := &Release{Tracks: []Track{
		{TrackNumber: 1, Title: "A"},
		{TrackNumber: 2, Title: "B"},
	}}
	assert.NoError(t, release.ValidateTracks())

	release.Tracks = append(release.Tracks, Track{TrackNumber: 2, Title: "C"})
	var validationErr *ValidationError
	require.ErrorAs(t, release.ValidateTracks(), &validationErr)
	assert.Equal(t, "trackNumber", validationErr.Field)
}
