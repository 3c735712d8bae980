package assessment

import (
	"context"

	"go.uber.org/zap"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/events"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

// CreateQuiz stores a new quiz under courseID. Missing ids are generated and
// a zero total is replaced by the sum of question points.
func (s *Service) CreateQuiz(ctx context.Context, p rbac.Principal, courseID string, z quiz.Quiz) (_ quiz.Quiz, err error) {
	const op = "quiz.create"
	defer s.observe(op, p, &err)

	c, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if err := s.requireOwner(op, c, p, "quiz:author"); err != nil {
		return quiz.Quiz{}, err
	}

	z = quiz.Clone(z)
	if z.ID == "" {
		z.ID = s.newID()
	}
	z.CourseID = c.ID
	now := s.now().UTC()
	z.CreatedAt, z.UpdatedAt = now, now
	if err := s.prepare(op, &z); err != nil {
		return quiz.Quiz{}, err
	}
	if _, err := s.store.GetQuiz(ctx, z.ID); err == nil {
		return quiz.Quiz{}, quiz.Invalid(op, "quiz %q already exists", z.ID)
	}
	if err := s.store.PutQuiz(ctx, z); err != nil {
		return quiz.Quiz{}, err
	}
	s.log.Info("quiz created", zap.String("quiz", z.ID), zap.String("course", c.ID),
		zap.Int("questions", len(z.Questions)), zap.Float64("points", z.Points))
	return z, nil
}

// UpdateQuiz loads the quiz, lets apply mutate it, and stores the result.
// The id, course and creation time cannot be changed through apply. A total
// that still equals the question sum keeps following it unless apply sets
// a new one.
func (s *Service) UpdateQuiz(ctx context.Context, p rbac.Principal, quizID string, apply func(*quiz.Quiz) error) (_ quiz.Quiz, err error) {
	const op = "quiz.update"
	defer s.observe(op, p, &err)

	z, c, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if err := s.requireOwner(op, c, p, "quiz:author"); err != nil {
		return quiz.Quiz{}, err
	}
	id, courseID, createdAt := z.ID, z.CourseID, z.CreatedAt
	points := z.Points
	tracksSum := points == z.QuestionPoints()
	if err := apply(&z); err != nil {
		if quiz.KindOf(err) != "" {
			return quiz.Quiz{}, err
		}
		return quiz.Quiz{}, quiz.Invalid(op, "%v", err)
	}
	z.ID, z.CourseID, z.CreatedAt = id, courseID, createdAt
	z.UpdatedAt = s.now().UTC()
	if tracksSum && z.Points == points {
		// The total was never set apart from the question sum.
		z.Points = z.QuestionPoints()
	}
	if err := s.prepare(op, &z); err != nil {
		return quiz.Quiz{}, err
	}
	if err := s.store.PutQuiz(ctx, z); err != nil {
		return quiz.Quiz{}, err
	}
	s.log.Info("quiz updated", zap.String("quiz", z.ID), zap.Int("questions", len(z.Questions)))
	return z, nil
}

func (s *Service) DeleteQuiz(ctx context.Context, p rbac.Principal, quizID string) (err error) {
	const op = "quiz.delete"
	defer s.observe(op, p, &err)

	_, c, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(op, c, p, "quiz:author"); err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.record(ctx, events.TypeQuizDeleted, quizID, map[string]string{"course": c.ID, "by": p.Subject})
	s.log.Info("quiz deleted", zap.String("quiz", quizID), zap.String("course", c.ID))
	return nil
}

// AddQuestion appends q to the quiz and returns it with its assigned id.
func (s *Service) AddQuestion(ctx context.Context, p rbac.Principal, quizID string, q quiz.Question) (quiz.Question, error) {
	var added quiz.Question
	_, err := s.UpdateQuiz(ctx, p, quizID, func(z *quiz.Quiz) error {
		if q.ID == "" {
			q.ID = s.newID()
		}
		if _, exists := z.Question(q.ID); exists {
			return quiz.Invalid("question.create", "question %q already exists", q.ID)
		}
		z.Questions = append(z.Questions, q)
		added = q
		return nil
	})
	return added, err
}

// UpdateQuestion replaces the question with id questionID, keeping its
// position and id.
func (s *Service) UpdateQuestion(ctx context.Context, p rbac.Principal, quizID, questionID string, q quiz.Question) (quiz.Question, error) {
	_, err := s.UpdateQuiz(ctx, p, quizID, func(z *quiz.Quiz) error {
		for i := range z.Questions {
			if z.Questions[i].ID == questionID {
				q.ID = questionID
				z.Questions[i] = q
				return nil
			}
		}
		return quiz.NotFound("question.update", "question %q not found", questionID)
	})
	if err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, p rbac.Principal, quizID, questionID string) error {
	_, err := s.UpdateQuiz(ctx, p, quizID, func(z *quiz.Quiz) error {
		for i := range z.Questions {
			if z.Questions[i].ID == questionID {
				z.Questions = append(z.Questions[:i], z.Questions[i+1:]...)
				return nil
			}
		}
		return quiz.NotFound("question.delete", "question %q not found", questionID)
	})
	return err
}

// prepare assigns question ids, fills the default total and validates.
func (s *Service) prepare(op string, z *quiz.Quiz) error {
	if z.Questions == nil {
		z.Questions = []quiz.Question{}
	}
	for i := range z.Questions {
		if z.Questions[i].ID == "" {
			z.Questions[i].ID = s.newID()
		}
	}
	if z.Points == 0 {
		z.Points = z.QuestionPoints()
	}
	warnings, err := quiz.Validate(*z)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		s.log.Warn("quiz authoring warning", zap.String("op", op), zap.String("quiz", z.ID), zap.String("warning", w))
	}
	return nil
}
