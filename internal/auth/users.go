package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserStore reads and writes the users table.
type UserStore struct {
	db   *sql.DB
	cost int
}

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{db: db, cost: 12} }

// WithCost lowers the bcrypt cost, for tests.
func (s *UserStore) WithCost(cost int) *UserStore {
	s.cost = cost
	return s
}

// CreateUser hashes password and inserts the user; an existing username is
// left unchanged.
func (s *UserStore) CreateUser(ctx context.Context, u User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	return s.CreateUserWithHash(ctx, u, string(hash))
}

func (s *UserStore) CreateUserWithHash(ctx context.Context, u User, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (username) DO NOTHING`,
		u.ID, u.Username, hash, u.Role, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	return nil
}

// Verify checks username/password and returns the stored user.
func (s *UserStore) Verify(ctx context.Context, username, password string) (User, error) {
	var (
		u    User
		hash sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, role, password_hash FROM users WHERE username=$1`, username,
	).Scan(&u.ID, &u.Username, &u.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !hash.Valid || bcrypt.CompareHashAndPassword([]byte(hash.String), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
