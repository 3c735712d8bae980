// Package course is the boundary to the course and enrollment subsystem. The
// quiz engine only needs to know who owns a course, who is enrolled in it,
// and how to make a course go away.
package course

import (
	"context"
	"time"
)

type Course struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
}

type Directory interface {
	Get(ctx context.Context, courseID string) (Course, error)
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
	Delete(ctx context.Context, courseID string) error
}
