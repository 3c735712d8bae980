package quiz_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/course"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/db"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
)

type storeFactory func(t *testing.T) quiz.Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) quiz.Store { return quiz.NewInMemoryStore() },
		"sqlite": func(t *testing.T) quiz.Store {
			t.Helper()
			name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
			dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
			dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
			require.NoError(t, err)
			t.Cleanup(func() { dbh.Close() })

			dir := course.NewSQLDirectory(dbh)
			for _, id := range []string{"c1", "c2"} {
				require.NoError(t, dir.Create(context.Background(), course.Course{ID: id, Name: id, OwnerID: "prof"}))
			}
			return quiz.NewSQLStore(dbh)
		},
	}
}

func eachStore(t *testing.T, fn func(t *testing.T, s quiz.Store)) {
	for name, mk := range storeFactories() {
		t.Run(name, func(t *testing.T) { fn(t, mk(t)) })
	}
}

func template(id, quizID, user string) quiz.Attempt {
	return quiz.Attempt{ID: id, QuizID: quizID, UserID: user, StartedAt: time.Now().UTC()}
}

func submit(t *testing.T, s quiz.Store, id string, score float64) quiz.Attempt {
	t.Helper()
	a, err := s.Submit(context.Background(), id, quiz.SubmitInput{
		Answers:     []quiz.Answer{},
		Score:       score,
		TotalPoints: 17,
		SubmittedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return a
}

func TestStore_QuizRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		z := sampleQuiz()
		require.NoError(t, s.PutQuiz(ctx, z))

		got, err := s.GetQuiz(ctx, "q1")
		require.NoError(t, err)
		assert.Equal(t, z.Title, got.Title)
		require.Len(t, got.Questions, 3)
		assert.Equal(t, 1, *got.Questions[0].CorrectChoiceIndex)
		assert.True(t, quiz.HasAnswerKey(got))

		z.Title = "renamed"
		require.NoError(t, s.PutQuiz(ctx, z))
		list, err := s.ListQuizzes(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "renamed", list[0].Title)

		_, err = s.GetQuiz(ctx, "missing")
		assert.True(t, errors.Is(err, quiz.ErrNotFound))
	})
}

func TestStore_StartIsIdempotent(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		require.NoError(t, s.PutQuiz(ctx, sampleQuiz()))

		a1, created, err := s.StartAttempt(ctx, template("a1", "q1", "u1"), 1)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 1, a1.AttemptNumber)
		assert.True(t, a1.InProgress)
		assert.Nil(t, a1.Score)

		a2, created, err := s.StartAttempt(ctx, template("a2", "q1", "u1"), 1)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "a1", a2.ID)

		_, _, err = s.StartAttempt(ctx, template("a3", "missing", "u1"), 1)
		assert.True(t, errors.Is(err, quiz.ErrNotFound))
	})
}

func TestStore_AttemptNumbersAndCap(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		require.NoError(t, s.PutQuiz(ctx, sampleQuiz()))

		for i := 1; i <= 3; i++ {
			a, created, err := s.StartAttempt(ctx, template(fmt.Sprintf("a%d", i), "q1", "u1"), 3)
			require.NoError(t, err)
			require.True(t, created)
			assert.Equal(t, i, a.AttemptNumber)
			submit(t, s, a.ID, float64(i))
		}
		_, _, err := s.StartAttempt(ctx, template("a4", "q1", "u1"), 3)
		require.Error(t, err)
		assert.True(t, errors.Is(err, quiz.ErrAttemptLimit))

		// another user is unaffected
		other, created, err := s.StartAttempt(ctx, template("b1", "q1", "u2"), 3)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 1, other.AttemptNumber)

		n, err := s.CountSubmitted(ctx, "q1", "u1")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

func TestStore_UnlimitedAttempts(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		require.NoError(t, s.PutQuiz(ctx, sampleQuiz()))
		for i := 1; i <= 5; i++ {
			a, _, err := s.StartAttempt(ctx, template(fmt.Sprintf("a%d", i), "q1", "u1"), 0)
			require.NoError(t, err)
			submit(t, s, a.ID, 0)
		}
	})
}

func TestStore_SaveAndSubmit(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		require.NoError(t, s.PutQuiz(ctx, sampleQuiz()))
		a, _, err := s.StartAttempt(ctx, template("a1", "q1", "u1"), 1)
		require.NoError(t, err)

		saved, err := s.SaveAnswers(ctx, a.ID, []quiz.Answer{{QuestionID: "mc", Value: json.RawMessage(`1`)}})
		require.NoError(t, err)
		require.Len(t, saved.Answers, 1)
		assert.JSONEq(t, `1`, string(saved.Answers[0].Value))
		assert.True(t, saved.InProgress)

		done := submit(t, s, a.ID, 10)
		assert.False(t, done.InProgress)
		require.NotNil(t, done.Score)
		assert.Equal(t, 10.0, *done.Score)
		assert.Equal(t, 17.0, done.TotalPoints)
		require.NotNil(t, done.SubmittedAt)

		_, err = s.Submit(ctx, a.ID, quiz.SubmitInput{SubmittedAt: time.Now()})
		assert.True(t, errors.Is(err, quiz.ErrAttemptNotInProgress))
		_, err = s.SaveAnswers(ctx, a.ID, nil)
		assert.True(t, errors.Is(err, quiz.ErrAttemptNotInProgress))

		_, err = s.Submit(ctx, "nope", quiz.SubmitInput{SubmittedAt: time.Now()})
		assert.True(t, errors.Is(err, quiz.ErrNotFound))
	})
}

func TestStore_ListAttempts(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		z := sampleQuiz()
		z.MultipleAttempts = true
		z.AttemptsAllowed = 0
		require.NoError(t, s.PutQuiz(ctx, z))

		for i := 1; i <= 3; i++ {
			a, _, err := s.StartAttempt(ctx, template(fmt.Sprintf("a%d", i), "q1", "u1"), 0)
			require.NoError(t, err)
			submit(t, s, a.ID, float64(i))
		}
		_, _, err := s.StartAttempt(ctx, template("a4", "q1", "u1"), 0)
		require.NoError(t, err)

		all, err := s.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: "q1", UserID: "u1"})
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i, a := range all {
			assert.Equal(t, i+1, a.AttemptNumber)
		}

		latest, err := s.ListAttempts(ctx, quiz.AttemptListOpts{
			QuizID: "q1", UserID: "u1", Status: quiz.StatusSubmitted, Desc: true, Limit: 1,
		})
		require.NoError(t, err)
		require.Len(t, latest, 1)
		assert.Equal(t, 3, latest[0].AttemptNumber)

		open, err := s.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: "q1", UserID: "u1", Status: quiz.StatusInProgress})
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, "a4", open[0].ID)
	})
}

func TestStore_DeleteCascades(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		z1 := sampleQuiz()
		z2 := sampleQuiz()
		z2.ID = "q2"
		z3 := sampleQuiz()
		z3.ID = "q3"
		z3.CourseID = "c2"
		for _, z := range []quiz.Quiz{z1, z2, z3} {
			require.NoError(t, s.PutQuiz(ctx, z))
		}
		a, _, err := s.StartAttempt(ctx, template("a1", "q1", "u1"), 1)
		require.NoError(t, err)
		keep, _, err := s.StartAttempt(ctx, template("a3", "q3", "u1"), 1)
		require.NoError(t, err)

		n, err := s.DeleteQuizzesForCourse(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, err = s.GetQuiz(ctx, "q1")
		assert.True(t, errors.Is(err, quiz.ErrNotFound))
		_, err = s.GetAttempt(ctx, a.ID)
		assert.True(t, errors.Is(err, quiz.ErrNotFound))

		_, err = s.GetAttempt(ctx, keep.ID)
		assert.NoError(t, err)

		require.NoError(t, s.DeleteQuiz(ctx, "q3"))
		_, err = s.GetAttempt(ctx, keep.ID)
		assert.True(t, errors.Is(err, quiz.ErrNotFound))
		assert.True(t, errors.Is(s.DeleteQuiz(ctx, "q3"), quiz.ErrNotFound))
	})
}

func TestStore_ConcurrentStartCreatesOne(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		require.NoError(t, s.PutQuiz(ctx, sampleQuiz()))

		const n = 8
		ids := make([]string, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				a, _, err := s.StartAttempt(ctx, template(fmt.Sprintf("a%d", i), "q1", "u1"), 1)
				ids[i], errs[i] = a.ID, err
			}(i)
		}
		wg.Wait()
		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
		list, err := s.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: "q1"})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestStore_ConcurrentSubmitOneWins(t *testing.T) {
	eachStore(t, func(t *testing.T, s quiz.Store) {
		ctx := context.Background()
		require.NoError(t, s.PutQuiz(ctx, sampleQuiz()))
		a, _, err := s.StartAttempt(ctx, template("a1", "q1", "u1"), 1)
		require.NoError(t, err)

		const n = 6
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.Submit(ctx, a.ID, quiz.SubmitInput{Score: float64(i), SubmittedAt: time.Now()})
			}(i)
		}
		wg.Wait()
		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.True(t, errors.Is(err, quiz.ErrAttemptNotInProgress))
		}
		assert.Equal(t, 1, wins)
	})
}
