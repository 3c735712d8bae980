package assessment

import (
	"context"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

// GetAttemptCount counts the caller's submitted attempts for a quiz.
func (s *Service) GetAttemptCount(ctx context.Context, p rbac.Principal, quizID string) (_ int, err error) {
	const op = "attempt.count"
	defer s.observe(op, p, &err)

	if err := s.requireQuiz(ctx, op, p, quizID); err != nil {
		return 0, err
	}
	return s.store.CountSubmitted(ctx, quizID, p.Subject)
}

// GetLatestAttempt returns the caller's submitted attempt with the highest
// number, or a not-found error if nothing was submitted yet.
func (s *Service) GetLatestAttempt(ctx context.Context, p rbac.Principal, quizID string) (_ quiz.Attempt, err error) {
	const op = "attempt.latest"
	defer s.observe(op, p, &err)

	if err := s.requireQuiz(ctx, op, p, quizID); err != nil {
		return quiz.Attempt{}, err
	}
	list, err := s.store.ListAttempts(ctx, quiz.AttemptListOpts{
		QuizID: quizID,
		UserID: p.Subject,
		Status: quiz.StatusSubmitted,
		Desc:   true,
		Limit:  1,
	})
	if err != nil {
		return quiz.Attempt{}, err
	}
	if len(list) == 0 {
		return quiz.Attempt{}, quiz.NotFound(op, "no submitted attempt for quiz %q", quizID)
	}
	return list[0], nil
}

// GetInProgressAttempt returns the caller's open attempt, or nil.
func (s *Service) GetInProgressAttempt(ctx context.Context, p rbac.Principal, quizID string) (_ *quiz.Attempt, err error) {
	const op = "attempt.in_progress"
	defer s.observe(op, p, &err)

	if err := s.requireQuiz(ctx, op, p, quizID); err != nil {
		return nil, err
	}
	list, err := s.store.ListAttempts(ctx, quiz.AttemptListOpts{
		QuizID: quizID,
		UserID: p.Subject,
		Status: quiz.StatusInProgress,
		Limit:  1,
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// ListAttempts is the caller's history for a quiz, oldest first.
func (s *Service) ListAttempts(ctx context.Context, p rbac.Principal, quizID string) (_ []quiz.Attempt, err error) {
	const op = "attempt.list"
	defer s.observe(op, p, &err)

	if err := s.requireQuiz(ctx, op, p, quizID); err != nil {
		return nil, err
	}
	return s.store.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: quizID, UserID: p.Subject})
}

// ListQuizAttempts lists every user's attempts for a quiz. Course owners only.
func (s *Service) ListQuizAttempts(ctx context.Context, p rbac.Principal, quizID string) (_ []quiz.Attempt, err error) {
	const op = "attempt.list_all"
	defer s.observe(op, p, &err)

	_, c, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(op, c, p, "attempt:view-all"); err != nil {
		return nil, err
	}
	return s.store.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: quizID})
}

func (s *Service) requireQuiz(ctx context.Context, op string, p rbac.Principal, quizID string) error {
	if err := s.requireAuthenticated(op, p); err != nil {
		return err
	}
	_, _, err := s.loadQuiz(ctx, quizID)
	return err
}
