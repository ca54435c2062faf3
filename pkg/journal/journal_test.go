package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "skillchef.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, j.Record(ctx, Event{RunID: "r1", Skill: "alpha", Outcome: "updated", Branch: "no-flavor", OldSHA256: "a", NewSHA256: "b"}))
	require.NoError(t, j.Record(ctx, Event{RunID: "r1", Skill: "beta", Outcome: "up to date"}))
	require.NoError(t, j.Record(ctx, Event{RunID: "r2", Skill: "alpha", Outcome: "ai merged", Model: "anthropic/claude-sonnet-4-5"}))

	all, err := j.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ai merged", all[0].Outcome)
	assert.Equal(t, base.Add(3*time.Minute), all[0].CreatedAt.UTC())

	alpha, err := j.List(ctx, Filter{Skill: "alpha"})
	require.NoError(t, err)
	require.Len(t, alpha, 2)
	assert.Equal(t, "r2", alpha[0].RunID)
	assert.Equal(t, "no-flavor", alpha[1].Branch)
	assert.Equal(t, "b", alpha[1].NewSHA256)

	run, err := j.List(ctx, Filter{RunID: "r1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, run, 1)
	assert.Equal(t, "beta", run[0].Skill)

	require.NoError(t, j.Forget(ctx, "alpha"))
	all, err = j.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordValidates(t *testing.T) {
	j := openTestJournal(t)
	assert.Error(t, j.Record(context.Background(), Event{Skill: "alpha", Outcome: "updated"}))
}
