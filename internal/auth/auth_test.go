package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"grana/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(storage.NewMemoryStore(), time.Hour)
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	userID, token, err := svc.SignUp(ctx, "ana@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if userID == "" || token == "" {
		t.Fatal("expected non-empty user id and token")
	}

	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != userID {
		t.Errorf("Verify = %q, want %q", got, userID)
	}

	id2, token2, err := svc.SignIn(ctx, "ANA@example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if id2 != userID {
		t.Errorf("SignIn user = %q, want %q", id2, userID)
	}
	if token2 == token {
		t.Error("expected a fresh token per session")
	}
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"bad email", "not-an-email", "long-enough", ErrInvalidEmail},
		{"short password", "ana@example.com", "short", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.SignUp(ctx, tt.email, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("SignUp error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, _, err := svc.SignUp(ctx, "ana@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, _, err := svc.SignUp(ctx, "ana@example.com", "other-password"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second SignUp error = %v, want ErrEmailTaken", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, _, err := svc.SignUp(ctx, "ana@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, _, err := svc.SignIn(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.SignIn(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignOutInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, token, err := svc.SignUp(ctx, "ana@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	svc.SignOut(token)
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify after SignOut = %v, want ErrInvalidToken", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), time.Nanosecond)

	_, token, err := svc.SignUp(ctx, "ana@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	time.Sleep(time.Millisecond)
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify expired = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewService(store, time.Hour)

	userID, _, err := svc.SignUp(ctx, "ana@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	// Reach into the service to grab the token since delivery is just a log line.
	svc.RequestPasswordReset(ctx, "ana@example.com")
	var token string
	svc.mu.Lock()
	for tok := range svc.resets {
		token = tok
	}
	svc.mu.Unlock()
	if token == "" {
		t.Fatal("expected a reset token to be issued")
	}

	if err := svc.ResetPassword(ctx, token, "new-password-1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, _, err := svc.SignIn(ctx, "ana@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still accepted after reset")
	}
	id, _, err := svc.SignIn(ctx, "ana@example.com", "new-password-1")
	if err != nil {
		t.Fatalf("SignIn with new password: %v", err)
	}
	if id != userID {
		t.Errorf("SignIn user = %q, want %q", id, userID)
	}

	// Tokens are single use.
	if err := svc.ResetPassword(ctx, token, "another-password"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("second ResetPassword = %v, want ErrInvalidToken", err)
	}
}

func TestResetUnknownEmailIsSilent(t *testing.T) {
	svc := newTestService(t)
	svc.RequestPasswordReset(context.Background(), "nobody@example.com")

	svc.mu.Lock()
	n := len(svc.resets)
	svc.mu.Unlock()
	if n != 0 {
		t.Errorf("expected no reset tokens for unknown email, got %d", n)
	}
}
