package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillchef/pkg/journal"
	"github.com/jingkaihe/skillchef/pkg/presenter"
)

func TestHistoryRows(t *testing.T) {
	rows := historyRows([]journal.Event{
		{
			RunID:     "7f7c3c1e-1111-2222-3333-444455556666",
			Skill:     "pdf",
			Outcome:   "ai-merged",
			Branch:    "conflict",
			OldSHA256: "aaaaaaaaaaaaaaaa",
			NewSHA256: "bbbbbbbbbbbbbbbb",
			Model:     "anthropic/claude-sonnet-4-20250514",
		},
		{
			RunID:     "run-2",
			Skill:     "docx",
			Outcome:   "up-to-date",
			OldSHA256: "cccccccccccccccc",
		},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"never", "pdf", "ai-merged (anthropic/claude-sonnet-4-20250514)", "conflict", "aaaaaaaaaaaa -> bbbbbbbbbbbb", "7f7c3c1e-111"}, rows[0])
	assert.Equal(t, []string{"never", "docx", "up-to-date", "", "cccccccccccc", "run-2"}, rows[1])
}

func TestRunHistory(t *testing.T) {
	ctx := context.Background()
	ui := &presenter.Scripted{}
	a := newTestApp(t, ui)

	j, err := a.openJournal(ctx)
	require.NoError(t, err)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, e := range []journal.Event{
		{RunID: "run-1", Skill: "pdf", Outcome: "cooked"},
		{RunID: "run-2", Skill: "pdf", Outcome: "updated"},
		{RunID: "run-2", Skill: "docx", Outcome: "up-to-date"},
	} {
		e.OldSHA256 = "abc"
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, j.Record(ctx, e))
	}
	require.NoError(t, j.Close())

	t.Run("skill filter", func(t *testing.T) {
		cmd, out := newTestCommand()
		hc := NewHistoryConfig()
		hc.Format = formatJSON
		require.NoError(t, runHistory(cmd, a, journal.Filter{Skill: "pdf"}, hc))

		var got []journal.Event
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "updated", got[0].Outcome)
		assert.Equal(t, "cooked", got[1].Outcome)
	})

	t.Run("run filter", func(t *testing.T) {
		cmd, out := newTestCommand()
		hc := NewHistoryConfig()
		hc.Format = formatJSON
		hc.RunID = "run-2"
		require.NoError(t, runHistory(cmd, a, journal.Filter{}, hc))

		var got []journal.Event
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "docx", got[0].Skill)
	})

	t.Run("table", func(t *testing.T) {
		cmd, out := newTestCommand()
		require.NoError(t, runHistory(cmd, a, journal.Filter{}, NewHistoryConfig()))
		assert.Contains(t, out.String(), "Outcome")
		assert.Contains(t, out.String(), "up-to-date")
	})

	t.Run("nothing recorded", func(t *testing.T) {
		cmd, out := newTestCommand()
		require.NoError(t, runHistory(cmd, a, journal.Filter{Skill: "pptx"}, NewHistoryConfig()))
		assert.Empty(t, out.String())
		assert.True(t, ui.HasMessage("info", "No syncs recorded yet"))
	})
}
