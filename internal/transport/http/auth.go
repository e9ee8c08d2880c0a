package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/auth"
	"github.com/anchalk04/smart-parking/internal/domain"
)

// TokenVerifier resolves a bearer token to the caller's user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Registrar interface {
	Register(ctx context.Context, in app.Credentials) (domain.User, error)
}

type LoginService interface {
	Login(ctx context.Context, in app.Credentials) (app.LoginResult, error)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

func HandleRegister(svc Registrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		u, err := svc.Register(r.Context(), app.Credentials{Email: req.Email, Password: req.Password})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, registerResponse{Message: "User registered successfully", UserID: u.ID})
	}
}

func HandleLogin(svc LoginService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		res, err := svc.Login(r.Context(), app.Credentials{Email: req.Email, Password: req.Password})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: res.Token, TokenType: "bearer"})
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// verified user id on the request context.
func RequireAuth(tokens TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractBearer(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthenticated, "missing bearer token")
				return
			}
			userID, err := tokens.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "err", err)
				writeError(w, http.StatusUnauthorized, codeUnauthenticated, "could not validate credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// callerID returns the authenticated user id, writing a 401 when absent.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "User ID not found in token.")
		return "", false
	}
	return userID, true
}
