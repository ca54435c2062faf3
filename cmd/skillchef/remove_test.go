package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillchef/pkg/journal"
	"github.com/jingkaihe/skillchef/pkg/presenter"
)

func TestRunRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed", func(t *testing.T) {
		ui := &presenter.Scripted{Confirms: []bool{true}}
		a := newTestApp(t, ui)
		cookTestSkill(t, a, "pdf", "# PDF\n")

		j, err := a.openJournal(ctx)
		require.NoError(t, err)
		require.NoError(t, j.Record(ctx, journal.Event{RunID: "run-1", Skill: "pdf", Outcome: "cooked"}))
		require.NoError(t, j.Close())

		require.NoError(t, runRemove(ctx, a, "pdf", false))
		assert.False(t, a.store.Exists("pdf"))
		assert.True(t, ui.HasMessage("success", "Removed pdf"))

		j, err = a.openJournal(ctx)
		require.NoError(t, err)
		defer j.Close()
		events, err := j.List(ctx, journal.Filter{Skill: "pdf"})
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("declined", func(t *testing.T) {
		ui := &presenter.Scripted{Confirms: []bool{false}}
		a := newTestApp(t, ui)
		cookTestSkill(t, a, "pdf", "# PDF\n")

		require.NoError(t, runRemove(ctx, a, "pdf", false))
		assert.True(t, a.store.Exists("pdf"))
		assert.True(t, ui.HasMessage("info", "Nothing removed"))
	})

	t.Run("yes skips the prompt", func(t *testing.T) {
		a := newTestApp(t, &presenter.Scripted{})
		cookTestSkill(t, a, "pdf", "# PDF\n")

		require.NoError(t, runRemove(ctx, a, "pdf", true))
		assert.False(t, a.store.Exists("pdf"))
	})

	t.Run("unknown skill", func(t *testing.T) {
		a := newTestApp(t, &presenter.Scripted{})
		err := runRemove(ctx, a, "pdf", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `skill "pdf" not found`)
	})
}
