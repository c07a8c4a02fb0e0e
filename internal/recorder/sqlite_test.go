package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexTrend/internal/model"
)

func TestSQLiteRecorder_RunLifecycle(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	defer rec.Close()

	sum := &model.RunSummary{
		RunID:     "run-1",
		StartedAt: time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC),
		State:     model.StateFetchingMissingDays,
		Watermark: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, rec.RecordRun(sum))

	d := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, rec.RecordFetch(sum.RunID, model.FetchOutcome{Kind: model.OutcomeHTTPError, Date: d, Status: 404, Payload: []byte("missing")}))
	require.NoError(t, rec.RecordFetch(sum.RunID, model.FetchOutcome{Kind: model.OutcomeSkipped, Date: d.AddDate(0, 0, 2), Reason: model.SkipReasonWeekend}))

	sum.State = model.StateDone
	sum.FinishedAt = sum.StartedAt.Add(time.Minute)
	sum.Added = 3
	sum.Artifacts = []model.TrendArtifact{{Path: "a.html"}, {Path: "b.html"}}
	require.NoError(t, rec.RecordRun(sum))

	var state, artifacts, watermark string
	var added int
	row := rec.db.QueryRow(`SELECT state, added, artifacts, watermark FROM runs WHERE run_id = ?`, "run-1")
	require.NoError(t, row.Scan(&state, &added, &artifacts, &watermark))
	assert.Equal(t, string(model.StateDone), state)
	assert.Equal(t, 3, added)
	assert.Equal(t, "a.html,b.html", artifacts)
	assert.Equal(t, "2024-01-03", watermark)

	var n int
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n))
	assert.Equal(t, 1, n)

	var kind, detail string
	var status int
	require.NoError(t, rec.db.QueryRow(`SELECT kind, http_status, detail FROM fetch_events WHERE date = ?`, "2024-01-04").Scan(&kind, &status, &detail))
	assert.Equal(t, string(model.OutcomeHTTPError), kind)
	assert.Equal(t, 404, status)
	assert.Equal(t, "missing", detail)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordRun(&model.RunSummary{}))
	assert.NoError(t, rec.RecordFetch("x", model.FetchOutcome{}))
	assert.NoError(t, rec.Close())
}
