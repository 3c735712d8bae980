package assessment

import (
	"context"

	"go.uber.org/zap"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/events"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/grading"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/metrics"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

// StartAttempt opens an attempt for the caller. If one is already in
// progress it is returned unchanged and created is false.
func (s *Service) StartAttempt(ctx context.Context, p rbac.Principal, quizID string) (_ quiz.Attempt, created bool, err error) {
	const op = "attempt.start"
	defer s.observe(op, p, &err)

	if err := s.requireAuthenticated(op, p); err != nil {
		return quiz.Attempt{}, false, err
	}
	z, c, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return quiz.Attempt{}, false, err
	}
	enrolled, err := s.courses.IsEnrolled(ctx, p.Subject, c.ID)
	if err != nil {
		return quiz.Attempt{}, false, err
	}
	if !enrolled {
		return quiz.Attempt{}, false, quiz.Forbidden(op, "not enrolled in course %q", c.ID)
	}

	a, created, err := s.store.StartAttempt(ctx, quiz.Attempt{
		ID:          s.newID(),
		QuizID:      z.ID,
		UserID:      p.Subject,
		Answers:     []quiz.Answer{},
		TotalPoints: z.QuestionPoints(),
		StartedAt:   s.now().UTC(),
	}, z.AttemptCap())
	if err != nil {
		return quiz.Attempt{}, false, err
	}
	if created {
		metrics.AttemptsStarted.Inc()
		s.log.Info("attempt started", zap.String("attempt", a.ID), zap.String("quiz", z.ID),
			zap.String("user", p.Subject), zap.Int("number", a.AttemptNumber))
	}
	return a, created, nil
}

// UpdateAttempt replaces the saved answers of an in-progress attempt
// verbatim. Nothing is graded. A nil slice keeps what was saved.
func (s *Service) UpdateAttempt(ctx context.Context, p rbac.Principal, attemptID string, answers []quiz.Answer) (_ quiz.Attempt, err error) {
	const op = "attempt.update"
	defer s.observe(op, p, &err)

	a, err := s.ownAttempt(ctx, op, p, attemptID)
	if err != nil {
		return quiz.Attempt{}, err
	}
	if !a.InProgress {
		return quiz.Attempt{}, quiz.StateError(op, "cannot update submitted attempt")
	}
	if answers == nil {
		return a, nil
	}
	return s.store.SaveAnswers(ctx, attemptID, ungraded(answers))
}

// ungraded copies answers without the correct/points fields; only grading
// at submission may set those.
func ungraded(answers []quiz.Answer) []quiz.Answer {
	out := make([]quiz.Answer, len(answers))
	for i, a := range answers {
		out[i] = quiz.Answer{QuestionID: a.QuestionID, Value: a.Value}
	}
	return out
}

// SubmitAttempt grades answers (or the saved ones when answers is nil) and
// finalizes the attempt. A second submit fails with a state error.
func (s *Service) SubmitAttempt(ctx context.Context, p rbac.Principal, attemptID string, answers []quiz.Answer) (_ quiz.Attempt, err error) {
	const op = "attempt.submit"
	defer s.observe(op, p, &err)

	a, err := s.ownAttempt(ctx, op, p, attemptID)
	if err != nil {
		return quiz.Attempt{}, err
	}
	if !a.InProgress {
		return quiz.Attempt{}, quiz.StateError(op, "attempt already submitted")
	}
	if answers == nil {
		answers = a.Answers
	}
	z, _, err := s.loadQuiz(ctx, a.QuizID)
	if err != nil {
		return quiz.Attempt{}, err
	}
	scored, err := grading.GradeAnswers(ctx, s.grader, z, answers)
	if err != nil {
		return quiz.Attempt{}, err
	}
	out, err := s.store.Submit(ctx, attemptID, quiz.SubmitInput{
		Answers:     scored.Answers,
		Score:       scored.Score,
		TotalPoints: scored.TotalPoints,
		SubmittedAt: s.now().UTC(),
	})
	if err != nil {
		return quiz.Attempt{}, err
	}

	metrics.AttemptsSubmitted.Inc()
	metrics.ObserveScore(scored.Score, scored.TotalPoints)
	s.record(ctx, events.TypeAttemptSubmitted, out.ID, map[string]any{
		"quiz":          out.QuizID,
		"student":       out.UserID,
		"attemptNumber": out.AttemptNumber,
		"score":         scored.Score,
		"totalPoints":   scored.TotalPoints,
	})
	s.log.Info("attempt submitted", zap.String("attempt", out.ID), zap.String("quiz", out.QuizID),
		zap.String("user", out.UserID), zap.Float64("score", scored.Score), zap.Float64("total", scored.TotalPoints))
	return out, nil
}

// GetAttempt returns an attempt to the user who owns it.
func (s *Service) GetAttempt(ctx context.Context, p rbac.Principal, attemptID string) (_ quiz.Attempt, err error) {
	const op = "attempt.get"
	defer s.observe(op, p, &err)
	return s.ownAttempt(ctx, op, p, attemptID)
}

func (s *Service) ownAttempt(ctx context.Context, op string, p rbac.Principal, attemptID string) (quiz.Attempt, error) {
	if err := s.requireAuthenticated(op, p); err != nil {
		return quiz.Attempt{}, err
	}
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return quiz.Attempt{}, err
	}
	if a.UserID != p.Subject {
		return quiz.Attempt{}, quiz.Forbidden(op, "attempt %q belongs to another user", attemptID)
	}
	return a, nil
}
