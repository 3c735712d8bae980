package assessment

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

// Every quiz leaving this file goes through quiz.View; that is the only place
// answer keys are stripped.

// GetQuiz returns a quiz rendered for the caller: complete for the course
// owner, without answer keys for enrolled users.
func (s *Service) GetQuiz(ctx context.Context, p rbac.Principal, quizID string) (_ quiz.Quiz, err error) {
	const op = "quiz.view"
	defer s.observe(op, p, &err)

	z, c, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if err := s.requireViewer(ctx, op, c, p); err != nil {
		return quiz.Quiz{}, err
	}
	return quiz.View(z, s.viewerFor(c, p)), nil
}

// ListQuizzesForCourse returns every quiz of the course, each rendered for
// the caller.
func (s *Service) ListQuizzesForCourse(ctx context.Context, p rbac.Principal, courseID string) (_ []quiz.Quiz, err error) {
	const op = "quiz.list"
	defer s.observe(op, p, &err)

	c, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireViewer(ctx, op, c, p); err != nil {
		return nil, err
	}
	zs, err := s.store.ListQuizzes(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return quiz.ViewAll(zs, s.viewerFor(c, p)), nil
}

// DebugQuiz returns the unredacted quiz to the course owner and dumps its
// answer key at debug level.
func (s *Service) DebugQuiz(ctx context.Context, p rbac.Principal, quizID string) (_ quiz.Quiz, err error) {
	const op = "quiz.debug"
	defer s.observe(op, p, &err)

	z, c, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if err := s.requireOwner(op, c, p, "quiz:debug"); err != nil {
		return quiz.Quiz{}, err
	}
	if ce := s.log.Check(zap.DebugLevel, "quiz debug"); ce != nil {
		fields := []zap.Field{
			zap.String("quiz", z.ID), zap.String("title", z.Title),
			zap.Float64("points", z.Points), zap.Int("questions", len(z.Questions)),
		}
		for i, q := range z.Questions {
			fields = append(fields, zap.Any("q"+strconv.Itoa(i+1), q))
		}
		ce.Write(fields...)
	}
	return quiz.View(z, quiz.ViewerOwner), nil
}

