package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/carhire/carhire/internal/model"
)

func TestGenerateSessionToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if !strings.HasPrefix(token, "sess_") {
		t.Errorf("token should start with sess_, got %q", token)
	}
	if len(token) != len("sess_")+64 {
		t.Errorf("token length = %d, want %d", len(token), len("sess_")+64)
	}
	if !ValidateTokenFormat(token) {
		t.Errorf("generated token should pass format validation: %q", token)
	}
}

func TestGenerateSessionToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken()
		if err != nil {
			t.Fatalf("GenerateSessionToken failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestValidateTokenFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid", "sess_" + strings.Repeat("0f", 32), true},
		{"empty", "", false},
		{"no prefix", strings.Repeat("0f", 32), false},
		{"uppercase hex", "sess_" + strings.Repeat("0F", 32), false},
		{"too short", "sess_abc", false},
		{"too long", "sess_" + strings.Repeat("0f", 33), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidateTokenFormat(tt.token); got != tt.want {
				t.Errorf("ValidateTokenFormat(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestSessionContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if SessionFromContext(ctx) != nil {
		t.Error("empty context should have no session")
	}
	if UserIDFromContext(ctx) != "" {
		t.Error("empty context should have no user id")
	}

	session := &model.Session{UserID: "01HX", Username: "frank", Role: model.RoleUser}
	ctx = ContextWithSession(ctx, session)

	if got := SessionFromContext(ctx); got != session {
		t.Errorf("SessionFromContext = %v, want %v", got, session)
	}
	if got := UserIDFromContext(ctx); got != "01HX" {
		t.Errorf("UserIDFromContext = %q, want 01HX", got)
	}
}

func TestMustSessionFromContext_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic without session")
		}
	}()
	MustSessionFromContext(context.Background())
}
