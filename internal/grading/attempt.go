package grading

import (
	"context"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
)

// Scored is the graded form of a whole submission.
type Scored struct {
	Answers     []quiz.Answer
	Score       float64
	TotalPoints float64
}

// GradeAnswers grades every answer of a submission against z. Answers that
// point at questions outside the quiz, repeat a question, or carry a value of
// the wrong shape fail the whole submission with a validation error.
// Questions left unanswered earn nothing.
func GradeAnswers(ctx context.Context, g Grader, z quiz.Quiz, answers []quiz.Answer) (Scored, error) {
	const op = "attempt.grade"
	out := Scored{
		Answers:     make([]quiz.Answer, 0, len(answers)),
		TotalPoints: z.QuestionPoints(),
	}
	seen := make(map[string]struct{}, len(answers))
	for i, a := range answers {
		if a.QuestionID == "" {
			return Scored{}, quiz.Invalid(op, "answer %d has no question", i)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return Scored{}, quiz.Invalid(op, "duplicate answer for question %q", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}

		q, ok := z.Question(a.QuestionID)
		if !ok {
			return Scored{}, quiz.Invalid(op, "question %q is not part of quiz %q", a.QuestionID, z.ID)
		}
		res, err := g.Grade(ctx, q, a.Value)
		if err != nil {
			return Scored{}, quiz.Invalid(op, "question %q: %v", a.QuestionID, err)
		}
		correct, points := res.Correct, res.Points
		out.Answers = append(out.Answers, quiz.Answer{
			QuestionID: a.QuestionID,
			Value:      append([]byte(nil), a.Value...),
			Correct:    &correct,
			Points:     &points,
		})
		out.Score += res.Points
	}
	return out, nil
}
