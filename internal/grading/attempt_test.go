package grading_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/grading"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
)

func mixedQuiz() quiz.Quiz {
	z := quiz.NewQuiz()
	z.ID = "quiz-1"
	z.Questions = []quiz.Question{mcQuestion(), fbQuestion()}
	return z
}

func ans(q, v string) quiz.Answer {
	return quiz.Answer{QuestionID: q, Value: json.RawMessage(v)}
}

func TestGradeAnswers_Mixed(t *testing.T) {
	z := mixedQuiz()
	out, err := grading.GradeAnswers(context.Background(), grading.NewDefaultGrader(), z,
		[]quiz.Answer{ans("mc", `1`), ans("fb", `["Python"]`)})
	require.NoError(t, err)
	assert.Equal(t, 15.0, out.Score)
	assert.Equal(t, 15.0, out.TotalPoints)
	require.Len(t, out.Answers, 2)
	for _, a := range out.Answers {
		require.NotNil(t, a.Correct)
		assert.True(t, *a.Correct)
		require.NotNil(t, a.Points)
	}
	assert.Equal(t, 10.0, *out.Answers[0].Points)
	assert.Equal(t, 5.0, *out.Answers[1].Points)
}

func TestGradeAnswers_UnansweredEarnsNothing(t *testing.T) {
	out, err := grading.GradeAnswers(context.Background(), grading.NewDefaultGrader(), mixedQuiz(),
		[]quiz.Answer{ans("fb", `["python"]`)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, 15.0, out.TotalPoints)
	require.Len(t, out.Answers, 1)
	assert.False(t, *out.Answers[0].Correct)
	assert.Equal(t, 0.0, *out.Answers[0].Points)
}

func TestGradeAnswers_Deterministic(t *testing.T) {
	g := grading.NewDefaultGrader()
	answers := []quiz.Answer{ans("mc", `0`), ans("fb", `["Python"]`)}
	first, err := grading.GradeAnswers(context.Background(), g, mixedQuiz(), answers)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := grading.GradeAnswers(context.Background(), g, mixedQuiz(), answers)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGradeAnswers_Rejects(t *testing.T) {
	cases := map[string][]quiz.Answer{
		"foreign question":   {ans("other", `1`)},
		"duplicate answer":   {ans("mc", `1`), ans("mc", `2`)},
		"missing question":   {ans("", `1`)},
		"wrong shape":        {ans("mc", `"B"`)},
		"index out of range": {ans("mc", `9`)},
		"null value":         {ans("fb", `null`)},
	}
	for name, answers := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := grading.GradeAnswers(context.Background(), grading.NewDefaultGrader(), mixedQuiz(), answers)
			require.Error(t, err)
			assert.True(t, errors.Is(err, quiz.ErrInvalid))
		})
	}
}
