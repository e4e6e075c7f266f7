// Package auth implements the identity provider: sign-up, sign-in with
// bearer tokens, sign-out and password reset. Credentials live in the
// document store; sessions are in-memory and die with the process.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"grana/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// UserStore is the credential persistence the Service needs; the storage
// backends implement it.
type UserStore interface {
	CreateUser(ctx context.Context, id, email, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (id, passwordHash string, err error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type session struct {
	userID    string
	expiresAt time.Time
}

// Service issues and verifies session tokens.
type Service struct {
	users      UserStore
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]session
	resets   map[string]session // reset tokens, shorter-lived
}

func NewService(users UserStore, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{
		users:      users,
		sessionTTL: sessionTTL,
		sessions:   make(map[string]session),
		resets:     make(map[string]session),
	}
}

// SignUp registers a new user and returns a session token.
func (s *Service) SignUp(ctx context.Context, email, password string) (userID, token string, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return "", "", ErrWeakPassword
	}

	if _, _, err := s.users.UserByEmail(ctx, email); err == nil {
		return "", "", ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	userID = uuid.NewString()
	if err := s.users.CreateUser(ctx, userID, email, string(hash)); err != nil {
		return "", "", err
	}

	slog.InfoContext(ctx, "User registered", "user_id", userID)
	return userID, s.newSession(userID), nil
}

// SignIn verifies credentials and returns a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (userID, token string, err error) {
	email = strings.ToLower(strings.TrimSpace(email))

	id, hash, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}
	return id, s.newSession(id), nil
}

// SignOut discards the session. Unknown tokens are ignored.
func (s *Service) SignOut(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Verify resolves a session token to its user id.
func (s *Service) Verify(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || time.Now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return "", ErrInvalidToken
	}
	return sess.userID, nil
}

// RequestPasswordReset issues a short-lived reset token. Delivery is out of
// scope; the token is logged for the operator. Unknown emails succeed
// silently so the endpoint does not leak which addresses exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) {
	email = strings.ToLower(strings.TrimSpace(email))

	id, _, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return
	}

	token := randomToken()
	s.mu.Lock()
	s.resets[token] = session{userID: id, expiresAt: time.Now().Add(time.Hour)}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Password reset token issued", "user_id", id, "token", token)
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	s.mu.Lock()
	sess, ok := s.resets[token]
	delete(s.resets, token)
	s.mu.Unlock()

	if !ok || time.Now().After(sess.expiresAt) {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, sess.userID, string(hash))
}

func (s *Service) newSession(userID string) string {
	token := randomToken()
	s.mu.Lock()
	s.sessions[token] = session{userID: userID, expiresAt: time.Now().Add(s.sessionTTL)}
	s.mu.Unlock()
	return token
}

func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return hex.EncodeToString(b)
}
