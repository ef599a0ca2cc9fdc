package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/metrics"
	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/repository"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUserPasswordHash(ctx context.Context, id, passwordHash string) error
}

// SessionStore persists sessions keyed by their opaque token.
type SessionStore interface {
	CreateSession(ctx context.Context, token string, sess *model.Session, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// AuthService handles signup, login and session resolution.
type AuthService struct {
	users      UserStore
	sessions   SessionStore
	sessionTTL time.Duration
	metrics    metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time

	hashPassword func(password string) (string, error)

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, sessions SessionStore, sessionTTL time.Duration, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:        users,
		sessions:     sessions,
		sessionTTL:   sessionTTL,
		metrics:      recorder,
		logger:       logger.With("component", "service.auth"),
		now:          func() time.Time { return time.Now().UTC() },
		hashPassword: auth.HashPassword,
	}
}

// Signup creates a regular user account.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := model.ValidateUsername(username); err != nil {
		return nil, invalid(err)
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, invalid(err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    s.now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncSignup()
	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token   string
	Session *model.Session
}

// Login verifies credentials and issues a new session.
// An unknown username and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		// Keep response time close to the wrong-password path.
		_, _ = auth.VerifyPassword(password, s.timingHash())
		s.metrics.IncLoginFailed()
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", "user_id", user.ID, "error", err)
		s.metrics.IncLoginFailed()
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.metrics.IncLoginFailed()
		return nil, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	sess := &model.Session{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, token, sess, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)

	return &LoginResult{Token: token, Session: sess}, nil
}

// Logout deletes the session behind token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if !auth.ValidateTokenFormat(token) {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session token to its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if !auth.ValidateTokenFormat(token) {
		return nil, ErrSessionInvalid
	}

	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionInvalid
	}
	if !sess.ExpiresAt.IsZero() && !s.now().Before(sess.ExpiresAt) {
		return nil, ErrSessionInvalid
	}

	return sess, nil
}

// upgradeHash replaces a legacy hash with an argon2id one.
// Failure only costs another upgrade attempt on the next login.
func (s *AuthService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := s.hashPassword(password)
	if err != nil {
		s.logger.Warn("failed to rehash password", "user_id", userID, "error", err)
		return
	}
	if err := s.users.UpdateUserPasswordHash(ctx, userID, hash); err != nil {
		s.logger.Warn("failed to store upgraded password hash", "user_id", userID, "error", err)
		return
	}
	s.logger.Info("upgraded legacy password hash", "user_id", userID)
}

func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hashPassword("carhire-timing-equalizer")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
