package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
)

type SQLDirectory struct{ db *sql.DB }

func NewSQLDirectory(db *sql.DB) *SQLDirectory { return &SQLDirectory{db: db} }

// Create inserts a course. Course CRUD lives outside the quiz engine; this
// exists for seeding and tests.
func (d *SQLDirectory) Create(ctx context.Context, c Course) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO courses (id, name, owner_id, created_at) VALUES ($1,$2,$3,$4)`,
		c.ID, c.Name, c.OwnerID, c.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("create course %s: %w", c.ID, err)
	}
	return nil
}

func (d *SQLDirectory) Enroll(ctx context.Context, userID, courseID string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO enrollments (course_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
		courseID, userID)
	return err
}

func (d *SQLDirectory) Get(ctx context.Context, courseID string) (Course, error) {
	var (
		c         Course
		createdAt int64
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at FROM courses WHERE id=$1`, courseID).
		Scan(&c.ID, &c.Name, &c.OwnerID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, quiz.NotFound("course.get", "course %q not found", courseID)
	}
	if err != nil {
		return Course{}, err
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	return c, nil
}

func (d *SQLDirectory) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx,
		`SELECT 1 FROM enrollments WHERE course_id=$1 AND user_id=$2`, courseID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes the course; enrollments, quizzes and attempts follow through
// ON DELETE CASCADE.
func (d *SQLDirectory) Delete(ctx context.Context, courseID string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, courseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.NotFound("course.delete", "course %q not found", courseID)
	}
	return nil
}
