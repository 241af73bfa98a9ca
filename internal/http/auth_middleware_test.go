package httpx

import (
	"net/http"
	"testing"
	"time"

	jwtpkg "github.com/splax/taskhub/pkg/jwt"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"", "", true},
		{"   ", "", true},
		{"Bearer", "", true},
		{"Bearer  ", "", true},
		{"Basic abc", "", true},
		{"Bearer abc def", "", true},
		{"Bearer token-123", "token-123", false},
		{"bearer token-123", "token-123", false},
	}
	for _, tc := range cases {
		got, err := bearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("bearerToken(%q): expected error", tc.header)
			}
			continue
		}
		if err != nil {
			t.Fatalf("bearerToken(%q): %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	router := setupRouter(t)
	expired, err := jwtpkg.GenerateToken(1, "router-test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	rec := doJSON(t, router, http.MethodGet, "/tasks", expired, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", rec.Code)
	}
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	router := setupRouter(t)
	forged, err := jwtpkg.GenerateToken(1, "some-other-secret", time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	rec := doJSON(t, router, http.MethodGet, "/tasks", forged, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: expected 401, got %d", rec.Code)
	}
}
