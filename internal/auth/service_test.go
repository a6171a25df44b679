package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hedoomy/backoffice/internal/audit"
	"github.com/hedoomy/backoffice/internal/shared"
)

type memUserRepo struct {
	users map[string]User
}

func newMemUserRepo(users ...User) *memUserRepo {
	m := make(map[string]User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &memUserRepo{users: m}
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memUserRepo) Get(_ context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) List(context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memUserRepo) Create(_ context.Context, user User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) SetActive(_ context.Context, id string, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func seedUser(t *testing.T, email, password, role string, active bool) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return User{
		ID:           "u-" + email,
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}
}

func TestAuthenticateAndResolve(t *testing.T) {
	user := seedUser(t, "admin@example.com", "s3cret!pass", RoleAdmin, true)
	svc := NewService(newMemUserRepo(user), testRedis(t), &recordingAudit{}, time.Hour)

	token, logged, err := svc.Authenticate(context.Background(), "admin@example.com", "s3cret!pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, user.ID, logged.ID)

	actor, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, shared.Actor{ID: user.ID, Email: user.Email, Name: user.Name, Role: RoleAdmin}, actor)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	user := seedUser(t, "admin@example.com", "s3cret!pass", RoleAdmin, true)
	svc := NewService(newMemUserRepo(user), testRedis(t), &recordingAudit{}, time.Hour)

	_, _, err := svc.Authenticate(context.Background(), "admin@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Authenticate(context.Background(), "nobody@example.com", "s3cret!pass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveAccount(t *testing.T) {
	user := seedUser(t, "old@example.com", "s3cret!pass", RoleEditor, false)
	svc := NewService(newMemUserRepo(user), testRedis(t), &recordingAudit{}, time.Hour)

	_, _, err := svc.Authenticate(context.Background(), "old@example.com", "s3cret!pass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRevokeExpiresToken(t *testing.T) {
	user := seedUser(t, "admin@example.com", "s3cret!pass", RoleAdmin, true)
	svc := NewService(newMemUserRepo(user), testRedis(t), &recordingAudit{}, time.Hour)

	token, _, err := svc.Authenticate(context.Background(), "admin@example.com", "s3cret!pass")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), token))

	_, err = svc.Resolve(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrTokenExpired)
}

func TestResolveUnknownToken(t *testing.T) {
	svc := NewService(newMemUserRepo(), testRedis(t), &recordingAudit{}, time.Hour)
	_, err := svc.Resolve(context.Background(), "not-a-token")
	require.ErrorIs(t, err, shared.ErrTokenExpired)
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMemUserRepo()
	auditRec := &recordingAudit{}
	svc := NewService(repo, testRedis(t), auditRec, time.Hour)

	user, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Email:    "editor@example.com",
		Name:     "Editor",
		Password: "longenough",
		Role:     RoleEditor,
	}, shared.Actor{Email: "admin@example.com"})
	require.NoError(t, err)
	require.True(t, user.IsActive)
	require.NotEqual(t, "longenough", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))

	require.Len(t, auditRec.entries, 1)
	require.Equal(t, "Created User", auditRec.entries[0].Action)
}

func TestSetUserActive(t *testing.T) {
	user := seedUser(t, "editor@example.com", "s3cret!pass", RoleEditor, true)
	repo := newMemUserRepo(user)
	auditRec := &recordingAudit{}
	svc := NewService(repo, testRedis(t), auditRec, time.Hour)

	require.NoError(t, svc.SetUserActive(context.Background(), user.ID, false, shared.Actor{}))
	stored, err := repo.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
	require.Equal(t, "Deactivated User", auditRec.entries[0].Action)

	require.NoError(t, svc.SetUserActive(context.Background(), user.ID, true, shared.Actor{}))
	require.Equal(t, "Activated User", auditRec.entries[1].Action)
}
