package quiz

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]Quiz
	attempts map[string]Attempt
}

// NewInMemoryStore returns a Store backed by maps, for tests and offline runs.
func NewInMemoryStore() Store {
	return &memoryStore{
		quizzes:  map[string]Quiz{},
		attempts: map[string]Attempt{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, z Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[z.ID] = Clone(z)
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, NotFound("quiz.get", "quiz %q not found", id)
	}
	return Clone(z), nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, courseID string) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Quiz{}
	for _, z := range m.quizzes {
		if z.CourseID == courseID {
			out = append(out, Clone(z))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return NotFound("quiz.delete", "quiz %q not found", id)
	}
	m.deleteQuizLocked(id)
	return nil
}

func (m *memoryStore) DeleteQuizzesForCourse(_ context.Context, courseID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, z := range m.quizzes {
		if z.CourseID == courseID {
			m.deleteQuizLocked(id)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) deleteQuizLocked(id string) {
	delete(m.quizzes, id)
	for aid, a := range m.attempts {
		if a.QuizID == id {
			delete(m.attempts, aid)
		}
	}
}

func (m *memoryStore) StartAttempt(_ context.Context, a Attempt, maxAttempts int) (Attempt, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[a.QuizID]; !ok {
		return Attempt{}, false, NotFound("attempt.start", "quiz %q not found", a.QuizID)
	}
	submitted := 0
	for _, cur := range m.attempts {
		if cur.QuizID != a.QuizID || cur.UserID != a.UserID {
			continue
		}
		if cur.InProgress {
			return CloneAttempt(cur), false, nil
		}
		submitted++
	}
	next := submitted + 1
	if maxAttempts > 0 && next > maxAttempts {
		return Attempt{}, false, PolicyError("attempt.start", "attempt %d exceeds the %d allowed", next, maxAttempts)
	}
	a.AttemptNumber = next
	a.InProgress = true
	a.Score = nil
	a.SubmittedAt = nil
	if a.Answers == nil {
		a.Answers = []Answer{}
	}
	m.attempts[a.ID] = CloneAttempt(a)
	return a, true, nil
}

func (m *memoryStore) SaveAnswers(_ context.Context, attemptID string, answers []Answer) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, NotFound("attempt.update", "attempt %q not found", attemptID)
	}
	if !a.InProgress {
		return Attempt{}, StateError("attempt.update", "cannot update submitted attempt")
	}
	a.Answers = answers
	if a.Answers == nil {
		a.Answers = []Answer{}
	}
	a = CloneAttempt(a)
	m.attempts[attemptID] = a
	return CloneAttempt(a), nil
}

func (m *memoryStore) Submit(_ context.Context, attemptID string, in SubmitInput) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, NotFound("attempt.submit", "attempt %q not found", attemptID)
	}
	if !a.InProgress {
		return Attempt{}, StateError("attempt.submit", "attempt already submitted")
	}
	score := in.Score
	at := in.SubmittedAt
	a.Answers = in.Answers
	a.Score = &score
	a.TotalPoints = in.TotalPoints
	a.SubmittedAt = &at
	a.InProgress = false
	a = CloneAttempt(a)
	m.attempts[attemptID] = a
	return CloneAttempt(a), nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, NotFound("attempt.get", "attempt %q not found", id)
	}
	return CloneAttempt(a), nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status() != opts.Status {
			continue
		}
		out = append(out, CloneAttempt(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		if opts.Desc {
			return out[i].AttemptNumber > out[j].AttemptNumber
		}
		return out[i].AttemptNumber < out[j].AttemptNumber
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) CountSubmitted(_ context.Context, quizID, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID && !a.InProgress {
			n++
		}
	}
	return n, nil
}
