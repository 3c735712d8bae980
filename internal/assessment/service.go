// Package assessment implements the quiz engine operations on top of a
// quiz.Store and a course.Directory. Every operation takes the caller as an
// explicit rbac.Principal.
package assessment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/course"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/events"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/grading"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/metrics"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

// Permission that lets a role act as owner of any course.
const permManageAny = "quiz:manage_any"

type Service struct {
	store   quiz.Store
	courses course.Directory
	grader  grading.Grader
	checker *rbac.Checker
	events  events.Recorder
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithGrader(g grading.Grader) Option     { return func(s *Service) { s.grader = g } }
func WithEvents(r events.Recorder) Option    { return func(s *Service) { s.events = r } }
func WithLogger(l *zap.Logger) Option        { return func(s *Service) { s.log = l } }
func WithClock(now func() time.Time) Option  { return func(s *Service) { s.now = now } }
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

func New(store quiz.Store, courses course.Directory, opts ...Option) *Service {
	s := &Service{
		store:   store,
		courses: courses,
		grader:  grading.NewDefaultGrader(),
		checker: rbac.NewChecker(nil),
		events:  events.Nop{},
		log:     zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) isOwner(c course.Course, p rbac.Principal) bool {
	if p.Anonymous() {
		return false
	}
	return p.Subject == c.OwnerID || s.checker.Has(p.Role, permManageAny)
}

func (s *Service) viewerFor(c course.Course, p rbac.Principal) quiz.Viewer {
	if s.isOwner(c, p) {
		return quiz.ViewerOwner
	}
	return quiz.ViewerOther
}

func (s *Service) requireAuthenticated(op string, p rbac.Principal) error {
	if p.Anonymous() {
		return quiz.Forbidden(op, "authentication required")
	}
	return nil
}

// requireOwner demands course ownership plus the role permission perm.
func (s *Service) requireOwner(op string, c course.Course, p rbac.Principal, perm string) error {
	if err := s.requireAuthenticated(op, p); err != nil {
		return err
	}
	if !s.isOwner(c, p) || !s.checker.Has(p.Role, perm) {
		return quiz.Forbidden(op, "only the owner of course %q may do this", c.ID)
	}
	return nil
}

// requireViewer admits the course owner and enrolled users.
func (s *Service) requireViewer(ctx context.Context, op string, c course.Course, p rbac.Principal) error {
	if err := s.requireAuthenticated(op, p); err != nil {
		return err
	}
	if s.isOwner(c, p) {
		return nil
	}
	ok, err := s.courses.IsEnrolled(ctx, p.Subject, c.ID)
	if err != nil {
		return err
	}
	if !ok {
		return quiz.Forbidden(op, "not enrolled in course %q", c.ID)
	}
	return nil
}

// loadQuiz fetches a quiz with its answer key and the course owning it. A
// quiz whose course is gone is reported as not found.
func (s *Service) loadQuiz(ctx context.Context, quizID string) (quiz.Quiz, course.Course, error) {
	z, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return quiz.Quiz{}, course.Course{}, err
	}
	c, err := s.courses.Get(ctx, z.CourseID)
	if err != nil {
		if quiz.KindOf(err) == quiz.KindNotFound {
			return quiz.Quiz{}, course.Course{}, quiz.NotFound("quiz.get", "quiz %q not found", quizID)
		}
		return quiz.Quiz{}, course.Course{}, err
	}
	return z, c, nil
}

// observe logs and counts a failed operation. Use with a named error result.
func (s *Service) observe(op string, p rbac.Principal, err *error) {
	if *err == nil {
		return
	}
	kind := quiz.KindOf(*err)
	if kind == "" {
		metrics.Rejections.WithLabelValues("internal").Inc()
		s.log.Error(op+" failed", zap.String("user", p.Subject), zap.Error(*err))
		return
	}
	metrics.Rejections.WithLabelValues(string(kind)).Inc()
	s.log.Debug(op+" rejected", zap.String("user", p.Subject), zap.String("kind", string(kind)), zap.Error(*err))
}

func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if err := s.events.Record(ctx, typ, key, data); err != nil {
		s.log.Warn("event not recorded", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}
