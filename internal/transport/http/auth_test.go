package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/auth"
	"github.com/anchalk04/smart-parking/internal/domain"
)

type stubVerifier struct {
	userID string
	err    error
}

func (s stubVerifier) Verify(string) (string, error) { return s.userID, s.err }

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.UserIDFromContext(r.Context())
		_, _ = w.Write([]byte(id))
	})

	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		status   int
		body     string
	}{
		{"missing header", "", stubVerifier{userID: "u1"}, http.StatusUnauthorized, codeUnauthenticated},
		{"not bearer", "Basic abc", stubVerifier{userID: "u1"}, http.StatusUnauthorized, codeUnauthenticated},
		{"rejected token", "Bearer bad", stubVerifier{err: auth.ErrInvalidToken}, http.StatusUnauthorized, codeUnauthenticated},
		{"valid token", "Bearer good", stubVerifier{userID: "u1"}, http.StatusOK, "u1"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/parking/my-reservations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			RequireAuth(tt.verifier, nil)(next).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("expected body to contain %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}

type stubAuth struct {
	err error
}

func (s stubAuth) Register(_ context.Context, in app.Credentials) (domain.User, error) {
	if s.err != nil {
		return domain.User{}, s.err
	}
	return domain.User{ID: "user-1", Email: in.Email}, nil
}

func (s stubAuth) Login(context.Context, app.Credentials) (app.LoginResult, error) {
	if s.err != nil {
		return app.LoginResult{}, s.err
	}
	return app.LoginResult{Token: "tok", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestHandleRegisterAndLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		status  int
		substr  string
	}{
		{"register ok", HandleRegister(stubAuth{}), `{"email":"a@b.c","password":"secret1"}`, http.StatusOK, `"user_id":"user-1"`},
		{"register taken", HandleRegister(stubAuth{err: domain.ErrEmailTaken}), `{"email":"a@b.c","password":"secret1"}`, http.StatusBadRequest, codeEmailTaken},
		{"register short password", HandleRegister(stubAuth{err: domain.ErrPasswordTooShort}), `{"email":"a@b.c","password":"x"}`, http.StatusBadRequest, codeInvalidInput},
		{"register bad body", HandleRegister(stubAuth{}), `[]`, http.StatusBadRequest, codeInvalidRequestBody},
		{"login ok", HandleLogin(stubAuth{}), `{"email":"a@b.c","password":"secret1"}`, http.StatusOK, `"token_type":"bearer"`},
		{"login wrong password", HandleLogin(stubAuth{err: domain.ErrInvalidCredentials}), `{"email":"a@b.c","password":"nope"}`, http.StatusBadRequest, codeInvalidCredentials},
		{"login store down", HandleLogin(stubAuth{err: errors.New("db down")}), `{"email":"a@b.c","password":"nope"}`, http.StatusInternalServerError, codeInternalError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.substr) {
				t.Fatalf("expected body to contain %q, got %q", tt.substr, rec.Body.String())
			}
		})
	}
}
