package course_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/course"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/db"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
)

type seedable interface {
	course.Directory
	seed(t *testing.T, c course.Course, enrolled ...string)
}

type memDir struct{ *course.MemoryDirectory }

func (m memDir) seed(_ *testing.T, c course.Course, enrolled ...string) {
	m.Put(c)
	for _, u := range enrolled {
		m.Enroll(u, c.ID)
	}
}

type sqlDir struct{ *course.SQLDirectory }

func (s sqlDir) seed(t *testing.T, c course.Course, enrolled ...string) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, c))
	for _, u := range enrolled {
		require.NoError(t, s.Enroll(ctx, u, c.ID))
	}
}

func eachDirectory(t *testing.T, fn func(t *testing.T, d seedable)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, memDir{course.NewMemoryDirectory()})
	})
	t.Run("sqlite", func(t *testing.T) {
		dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
		dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { dbh.Close() })
		fn(t, sqlDir{course.NewSQLDirectory(dbh)})
	})
}

func TestDirectory(t *testing.T) {
	eachDirectory(t, func(t *testing.T, d seedable) {
		ctx := context.Background()
		d.seed(t, course.Course{ID: "c1", Name: "Web Dev", OwnerID: "prof"}, "s1", "s2")

		c, err := d.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "prof", c.OwnerID)
		assert.Equal(t, "Web Dev", c.Name)

		_, err = d.Get(ctx, "nope")
		assert.Equal(t, quiz.KindNotFound, quiz.KindOf(err))

		ok, err := d.IsEnrolled(ctx, "s1", "c1")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = d.IsEnrolled(ctx, "s3", "c1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, d.Delete(ctx, "c1"))
		_, err = d.Get(ctx, "c1")
		assert.Equal(t, quiz.KindNotFound, quiz.KindOf(err))
		ok, err = d.IsEnrolled(ctx, "s1", "c1")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Equal(t, quiz.KindNotFound, quiz.KindOf(d.Delete(ctx, "c1")))
	})
}

func TestSQLDirectory_EnrollIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	defer dbh.Close()

	d := course.NewSQLDirectory(dbh)
	require.NoError(t, d.Create(ctx, course.Course{ID: "c1", OwnerID: "prof"}))
	require.NoError(t, d.Enroll(ctx, "s1", "c1"))
	require.NoError(t, d.Enroll(ctx, "s1", "c1"))
	assert.Error(t, d.Create(ctx, course.Course{ID: "c1", OwnerID: "other"}))
}
