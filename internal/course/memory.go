package course

import (
	"context"
	"sync"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
)

// MemoryDirectory is an in-process Directory used by tests and offline runs.
type MemoryDirectory struct {
	mu       sync.RWMutex
	courses  map[string]Course
	enrolled map[string]map[string]struct{} // course -> users
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		courses:  map[string]Course{},
		enrolled: map[string]map[string]struct{}{},
	}
}

func (d *MemoryDirectory) Put(c Course) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.courses[c.ID] = c
}

func (d *MemoryDirectory) Enroll(userID, courseID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enrolled[courseID] == nil {
		d.enrolled[courseID] = map[string]struct{}{}
	}
	d.enrolled[courseID][userID] = struct{}{}
}

func (d *MemoryDirectory) Get(_ context.Context, courseID string) (Course, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.courses[courseID]
	if !ok {
		return Course{}, quiz.NotFound("course.get", "course %q not found", courseID)
	}
	return c, nil
}

func (d *MemoryDirectory) IsEnrolled(_ context.Context, userID, courseID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.enrolled[courseID][userID]
	return ok, nil
}

func (d *MemoryDirectory) Delete(_ context.Context, courseID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.courses[courseID]; !ok {
		return quiz.NotFound("course.delete", "course %q not found", courseID)
	}
	delete(d.courses, courseID)
	delete(d.enrolled, courseID)
	return nil
}
