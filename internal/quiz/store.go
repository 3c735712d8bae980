package quiz

import (
	"context"
	"time"
)

type AttemptListOpts struct {
	QuizID string
	UserID string // empty lists every user (owner dashboards)
	Status string // optional: in_progress|submitted
	Limit  int
	Desc   bool // attempt_number descending; default ascending
}

// SubmitInput is the graded outcome persisted by Store.Submit.
type SubmitInput struct {
	Answers     []Answer
	Score       float64
	TotalPoints float64
	SubmittedAt time.Time
}

// Store persists quizzes and attempts. Quizzes are returned with answer keys
// intact; redaction is the caller's job (see View).
type Store interface {
	PutQuiz(ctx context.Context, z Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListQuizzes(ctx context.Context, courseID string) ([]Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error
	// DeleteQuizzesForCourse removes every quiz of a course together with
	// their attempts and reports how many quizzes went away.
	DeleteQuizzesForCourse(ctx context.Context, courseID string) (int, error)

	// StartAttempt atomically returns the in-progress attempt of
	// (a.UserID, a.QuizID) if there is one (created=false), or inserts a
	// with the next attempt number. maxAttempts > 0 caps that number.
	StartAttempt(ctx context.Context, a Attempt, maxAttempts int) (out Attempt, created bool, err error)
	SaveAnswers(ctx context.Context, attemptID string, answers []Answer) (Attempt, error)
	// Submit finalizes an in-progress attempt. Only one caller can win; the
	// rest get a state error.
	Submit(ctx context.Context, attemptID string, in SubmitInput) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
	CountSubmitted(ctx context.Context, quizID, userID string) (int, error)
}
