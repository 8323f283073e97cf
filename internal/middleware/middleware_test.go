package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

type fakeVerifier struct {
	token string
}

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken != f.token {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: "uid-123"}, nil
}

func TestFirebaseAuth(t *testing.T) {
	m := &Middleware{AuthClient: fakeVerifier{token: "good"}}

	var seenUID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUID = UID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := m.FirebaseAuth(next)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUID = ""
			req := httptest.NewRequest(http.MethodGet, "/usage", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if tt.status == http.StatusNoContent && seenUID != "uid-123" {
				t.Fatalf("uid not propagated: %q", seenUID)
			}
		})
	}
}

func TestLoggerMiddlewareStoresRequestLogger(t *testing.T) {
	base := slog.New(logger.NewTestHandler(slog.LevelInfo))
	m := NewLoggerMiddleware(base)

	var got *slog.Logger
	h := chimiddleware.RequestID(m.LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.FromContext(r.Context())
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api", nil))

	if got == nil || got == base || got == slog.Default() {
		t.Fatalf("expected a request-scoped logger in the context")
	}
}
