package assessment

import (
	"context"

	"go.uber.org/zap"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/events"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

// DeleteCourse removes a course together with its quizzes and their
// attempts. Quizzes go first so nothing of the course stays reachable if the
// directory delete fails.
func (s *Service) DeleteCourse(ctx context.Context, p rbac.Principal, courseID string) (err error) {
	const op = "course.delete"
	defer s.observe(op, p, &err)

	c, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(op, c, p, "course:delete_own"); err != nil {
		return err
	}
	n, err := s.store.DeleteQuizzesForCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, courseID); err != nil {
		return err
	}
	s.record(ctx, events.TypeCourseDeleted, courseID, map[string]any{"quizzes": n, "by": p.Subject})
	s.log.Info("course deleted", zap.String("course", courseID), zap.Int("quizzes", n))
	return nil
}
