package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/auth"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/db"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

const secret = "test-secret-0123456789abcdef0123456789"

func TestIssueAndParse(t *testing.T) {
	a := auth.NewAuthService(secret, time.Hour)
	tok, err := a.IssueJWT("u1", rbac.RoleFaculty)
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Sub)
	assert.Equal(t, rbac.RoleFaculty, c.Role)
	assert.Equal(t, "quizd", c.Issuer)
}

func TestParse_Rejects(t *testing.T) {
	a := auth.NewAuthService(secret, time.Hour)

	other, err := auth.NewAuthService("another-secret-0123456789abcdef0123", time.Hour).IssueJWT("u1", rbac.RoleAdmin)
	require.NoError(t, err)
	_, err = a.Parse(other)
	assert.True(t, errors.Is(err, auth.ErrBadToken))

	_, err = a.Parse("not.a.token")
	assert.True(t, errors.Is(err, auth.ErrBadToken))

	noSub, err := a.IssueJWT("", rbac.RoleStudent)
	require.NoError(t, err)
	_, err = a.Parse(noSub)
	assert.True(t, errors.Is(err, auth.ErrBadToken))

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Sub: "u1", Role: rbac.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})
	s, err := foreign.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = a.Parse(s)
	assert.True(t, errors.Is(err, auth.ErrBadToken))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{
		Sub: "u1", Role: rbac.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "quizd"},
	})
	s, err = unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Parse(s)
	assert.True(t, errors.Is(err, auth.ErrBadToken))
}

func TestParse_Expired(t *testing.T) {
	a := auth.NewAuthService(secret, time.Nanosecond)
	tok, err := a.IssueJWT("u1", rbac.RoleStudent)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = a.Parse(tok)
	assert.True(t, errors.Is(err, auth.ErrBadToken))
}

func TestJWTMiddleware(t *testing.T) {
	a := auth.NewAuthService(secret, time.Hour)
	var seen rbac.Principal
	h := auth.JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = rbac.PrincipalFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Contains(t, rec.Body.String(), `"kind":"unauthenticated"`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := a.IssueJWT("s1", rbac.RoleStudent)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rbac.Principal{Subject: "s1", Role: rbac.RoleStudent}, seen)
}

func newUsers(t *testing.T) *auth.UserStore {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })
	return auth.NewUserStore(dbh).WithCost(bcrypt.MinCost)
}

func TestUserStore_Verify(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t)
	require.NoError(t, users.CreateUser(ctx, auth.User{ID: "u1", Username: "ada", Role: rbac.RoleFaculty}, "s3cret"))
	// existing usernames are left alone
	require.NoError(t, users.CreateUser(ctx, auth.User{ID: "u2", Username: "ada", Role: rbac.RoleAdmin}, "other"))

	u, err := users.Verify(ctx, "ada", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, auth.User{ID: "u1", Username: "ada", Role: rbac.RoleFaculty}, u)

	_, err = users.Verify(ctx, "ada", "other")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = users.Verify(ctx, "bob", "s3cret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginHandler(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t)
	require.NoError(t, users.CreateUser(ctx, auth.User{ID: "u1", Username: "ada", Role: rbac.RoleFaculty}, "s3cret"))
	a := auth.NewAuthService(secret, time.Hour)
	h := auth.LoginHandler(a, users, zap.NewNop())

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		return rec
	}

	rec := post(`{"username":"ada","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		AccessToken string    `json:"access_token"`
		User        auth.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.User.ID)
	c, err := a.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Sub)
	assert.Equal(t, rbac.RoleFaculty, c.Role)

	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"ada","password":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"password":"x"}`).Code)
}
