package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutQuiz(ctx context.Context, z Quiz) error {
	qj, err := json.Marshal(z)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,course_id,title,quiz_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET course_id=EXCLUDED.course_id, title=EXCLUDED.title,
			quiz_json=EXCLUDED.quiz_json, updated_at=EXCLUDED.updated_at`,
		z.ID, z.CourseID, z.Title, string(qj), z.CreatedAt.UnixMilli(), z.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("put quiz: %w", err)
	}
	return nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT quiz_json FROM quizzes WHERE id=$1`, id)
	var qjson string
	if err := row.Scan(&qjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, NotFound("quiz.get", "quiz %q not found", id)
		}
		return Quiz{}, err
	}
	var z Quiz
	if err := json.Unmarshal([]byte(qjson), &z); err != nil {
		return Quiz{}, fmt.Errorf("decode quiz %s: %w", id, err)
	}
	return z, nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, courseID string) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT quiz_json FROM quizzes WHERE course_id=$1 ORDER BY created_at, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		var qjson string
		if err := rows.Scan(&qjson); err != nil {
			return nil, err
		}
		var z Quiz
		if err := json.Unmarshal([]byte(qjson), &z); err != nil {
			return nil, fmt.Errorf("decode quiz: %w", err)
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM attempts WHERE quiz_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFound("quiz.delete", "quiz %q not found", id)
	}
	return tx.Commit()
}

func (s *SQLStore) DeleteQuizzesForCourse(ctx context.Context, courseID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attempts WHERE quiz_id IN (SELECT id FROM quizzes WHERE course_id=$1)`, courseID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE course_id=$1`, courseID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLStore) StartAttempt(ctx context.Context, a Attempt, maxAttempts int) (Attempt, bool, error) {
	out, created, err := s.startAttemptTx(ctx, a, maxAttempts)
	if err != nil && isUniqueViolation(err) {
		return s.startLost(ctx, a, err)
	}
	return out, created, err
}

// startLost resolves an insert that collided with a concurrent start by
// returning the in-progress attempt that won.
func (s *SQLStore) startLost(ctx context.Context, a Attempt, cause error) (Attempt, bool, error) {
	cur, ok, err := s.findInProgress(ctx, s.db, a.QuizID, a.UserID)
	if err != nil {
		return Attempt{}, false, err
	}
	if !ok {
		return Attempt{}, false, cause
	}
	return cur, false, nil
}

func (s *SQLStore) startAttemptTx(ctx context.Context, a Attempt, maxAttempts int) (Attempt, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, false, err
	}
	defer tx.Rollback()

	var exist int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, a.QuizID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, false, NotFound("attempt.start", "quiz %q not found", a.QuizID)
		}
		return Attempt{}, false, err
	}

	cur, ok, err := s.findInProgress(ctx, tx, a.QuizID, a.UserID)
	if err != nil {
		return Attempt{}, false, err
	}
	if ok {
		return cur, false, nil
	}

	var submitted int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE quiz_id=$1 AND user_id=$2 AND status='submitted'`,
		a.QuizID, a.UserID).Scan(&submitted); err != nil {
		return Attempt{}, false, err
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
	aj, _ := json.Marshal(a.Answers)
	if _, err := tx.ExecContext(ctx, `INSERT INTO attempts
		(id,quiz_id,user_id,attempt_number,status,score,total_points,answers_json,started_at)
		VALUES ($1,$2,$3,$4,'in_progress',NULL,$5,$6,$7)`,
		a.ID, a.QuizID, a.UserID, a.AttemptNumber, a.TotalPoints, string(aj), a.StartedAt.UnixMilli()); err != nil {
		return Attempt{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Attempt{}, false, err
	}
	return a, true, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) findInProgress(ctx context.Context, q queryer, quizID, userID string) (Attempt, bool, error) {
	row := q.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM attempts
		WHERE quiz_id=$1 AND user_id=$2 AND status='in_progress'`, quizID, userID)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, false, nil
	}
	if err != nil {
		return Attempt{}, false, err
	}
	return a, true, nil
}

func (s *SQLStore) SaveAnswers(ctx context.Context, attemptID string, answers []Answer) (Attempt, error) {
	if answers == nil {
		answers = []Answer{}
	}
	buf, err := json.Marshal(answers)
	if err != nil {
		return Attempt{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET answers_json=$1 WHERE id=$2 AND status='in_progress'`, string(buf), attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetAttempt(ctx, attemptID); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, StateError("attempt.update", "cannot update submitted attempt")
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *SQLStore) Submit(ctx context.Context, attemptID string, in SubmitInput) (Attempt, error) {
	answers := in.Answers
	if answers == nil {
		answers = []Answer{}
	}
	buf, err := json.Marshal(answers)
	if err != nil {
		return Attempt{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET status='submitted', score=$1, total_points=$2, answers_json=$3, submitted_at=$4
		WHERE id=$5 AND status='in_progress'`,
		in.Score, in.TotalPoints, string(buf), in.SubmittedAt.UnixMilli(), attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetAttempt(ctx, attemptID); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, StateError("attempt.submit", "attempt already submitted")
	}
	return s.GetAttempt(ctx, attemptID)
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM attempts WHERE id=$1`, id)
	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, NotFound("attempt.get", "attempt %q not found", id)
		}
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.QuizID != "" {
		add("quiz_id=$%d", opts.QuizID)
	}
	if opts.UserID != "" {
		add("user_id=$%d", opts.UserID)
	}
	if opts.Status != "" {
		add("status=$%d", opts.Status)
	}
	q := `SELECT ` + attemptCols + ` FROM attempts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}
	q += ` ORDER BY user_id, attempt_number ` + dir
	if opts.Limit > 0 {
		q += ` LIMIT ` + strconv.Itoa(opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountSubmitted(ctx context.Context, quizID, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE quiz_id=$1 AND user_id=$2 AND status='submitted'`,
		quizID, userID).Scan(&n)
	return n, err
}

const attemptCols = `id,quiz_id,user_id,attempt_number,status,score,total_points,answers_json,started_at,submitted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(sc scanner) (Attempt, error) {
	var (
		a           Attempt
		status      string
		score       sql.NullFloat64
		ajson       string
		startedAt   int64
		submittedAt sql.NullInt64
	)
	if err := sc.Scan(&a.ID, &a.QuizID, &a.UserID, &a.AttemptNumber, &status, &score,
		&a.TotalPoints, &ajson, &startedAt, &submittedAt); err != nil {
		return Attempt{}, err
	}
	a.InProgress = status == StatusInProgress
	if score.Valid {
		v := score.Float64
		a.Score = &v
	}
	a.StartedAt = time.UnixMilli(startedAt).UTC()
	if submittedAt.Valid {
		t := time.UnixMilli(submittedAt.Int64).UTC()
		a.SubmittedAt = &t
	}
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("decode attempt %s answers: %w", a.ID, err)
	}
	if a.Answers == nil {
		a.Answers = []Answer{}
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) && sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// modernc reports the primary result code unless extended codes are on.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
