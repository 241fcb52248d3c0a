package service

import (
	"errors"
	"testing"
	"time"

	"github.com/supabase-community/supabase-go"
	"pdf-reader-session/internal/domain"
)

// MockSupabaseClient for testing
type MockSupabaseClient struct {
	calls int
}

func NewMockSupabaseClient() *MockSupabaseClient {
	return &MockSupabaseClient{}
}

func (m *MockSupabaseClient) Initialize() error {
	return nil
}

func (m *MockSupabaseClient) ValidateToken(token string) (*domain.SupabaseUser, error) {
	m.calls++
	if token == "valid-token" {
		return &domain.SupabaseUser{
			ID:    "user-123",
			Email: "test@example.com",
		}, nil
	}
	return nil, errors.New("token validation failed")
}

func (m *MockSupabaseClient) DB() *supabase.Client {
	return nil
}

func TestAuthService_ValidateToken(t *testing.T) {
	client := NewMockSupabaseClient()
	service := NewAuthService(client, NewMockLogger())

	user, err := service.ValidateToken("valid-token")
	if err != nil {
		t.Fatalf("expected no error for valid token, got %v", err)
	}
	if user.ID != "user-123" {
		t.Fatalf("expected user ID 'user-123', got '%s'", user.ID)
	}

	_, err = service.ValidateToken("invalid-token")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	if _, err := service.ValidateToken(""); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestAuthService_CachesValidTokens(t *testing.T) {
	client := NewMockSupabaseClient()
	service := NewAuthService(client, NewMockLogger())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := service.ValidateToken("valid-token"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 upstream validation, got %d", client.calls)
	}

	now = now.Add(tokenCacheTTL + time.Second)
	if _, err := service.ValidateToken("valid-token"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected revalidation after expiry, got %d calls", client.calls)
	}

	for i := 0; i < 2; i++ {
		_, _ = service.ValidateToken("bad")
	}
	if client.calls != 4 {
		t.Fatalf("expected failures not to be cached, got %d calls", client.calls)
	}
}
