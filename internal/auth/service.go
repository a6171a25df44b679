package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/hedoomy/backoffice/internal/audit"
	"github.com/hedoomy/backoffice/internal/shared"
)

// AuditPort abstracts activity logging.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *redis.Client
	audit    AuditPort
	tokenTTL time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *redis.Client, auditPort AuditPort, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Service{repo: repo, tokens: tokens, audit: auditPort, tokenTTL: tokenTTL}
}

func tokenKey(token string) string {
	return fmt.Sprintf("auth:token:%s", token)
}

// Authenticate validates email/password credentials and issues a bearer token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}

	token := uuid.NewString()
	actor := shared.Actor{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}
	payload, err := json.Marshal(actor)
	if err != nil {
		return "", nil, err
	}
	if err := s.tokens.Set(ctx, tokenKey(token), payload, s.tokenTTL).Err(); err != nil {
		return "", nil, fmt.Errorf("auth: store token: %w", err)
	}
	return token, user, nil
}

// Resolve looks up the actor behind a bearer token.
func (s *Service) Resolve(ctx context.Context, token string) (shared.Actor, error) {
	payload, err := s.tokens.Get(ctx, tokenKey(token)).Bytes()
	if err == redis.Nil {
		return shared.Actor{}, shared.ErrTokenExpired
	}
	if err != nil {
		return shared.Actor{}, err
	}
	var actor shared.Actor
	if err := json.Unmarshal(payload, &actor); err != nil {
		return shared.Actor{}, err
	}
	return actor, nil
}

// Revoke invalidates a bearer token.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.tokens.Del(ctx, tokenKey(token)).Err()
}

// CreateUser provisions a new admin account.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest, actor shared.Actor) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  "Created User",
			Details: fmt.Sprintf("Created %s account for %s", user.Role, user.Email),
			Actor:   actor,
		})
	}
	return &user, nil
}

// ListUsers returns all admin accounts.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// SetUserActive toggles an account on or off.
func (s *Service) SetUserActive(ctx context.Context, id string, active bool, actor shared.Actor) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	if s.audit != nil {
		action := "Deactivated User"
		if active {
			action = "Activated User"
		}
		_ = s.audit.Record(ctx, audit.Entry{
			Action:  action,
			Details: fmt.Sprintf("User %s active=%t", id, active),
			Actor:   actor,
		})
	}
	return nil
}
