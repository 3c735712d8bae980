package events_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/db"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/events"
)

func TestEventRepo_RecordAndSince(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	defer dbh.Close()

	repo := events.NewEventRepo(dbh, "")
	require.NoError(t, repo.Record(ctx, events.TypeAttemptSubmitted, "a1", map[string]any{"score": 10.0}))
	require.NoError(t, repo.Record(ctx, events.TypeQuizDeleted, "q1", nil))
	require.NoError(t, repo.Record(ctx, events.TypeCourseDeleted, "c1", map[string]int{"quizzes": 2}))

	all, err := repo.Since(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "local", all[0].SiteID)
	assert.Equal(t, events.TypeAttemptSubmitted, all[0].Type)
	assert.Equal(t, "a1", all[0].Key)
	assert.True(t, all[0].Seq < all[1].Seq && all[1].Seq < all[2].Seq)

	var data map[string]float64
	require.NoError(t, json.Unmarshal([]byte(all[0].DataJSON), &data))
	assert.Equal(t, 10.0, data["score"])
	assert.Equal(t, "null", all[1].DataJSON)

	page, err := repo.Since(ctx, all[0].Seq, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "q1", page[0].Key)

	none, err := repo.Since(ctx, all[2].Seq, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEventRepo_RejectsUnencodableData(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	defer dbh.Close()

	err = events.NewEventRepo(dbh, "site").Record(ctx, events.TypeQuizDeleted, "q1", make(chan int))
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var r events.Recorder = events.Nop{}
	assert.NoError(t, r.Record(context.Background(), "x", "y", nil))
}
