package middleware

import (
	"context"
	"net/http"
	"strings"

	"crowddeck/internal/service"
)

type contextKey string

const (
	PresenterIDKey   contextKey = "presenterId"
	SessionIDKey     contextKey = "sessionId"
	ParticipantIDKey contextKey = "participantId"
)

// AuthMiddleware validates JWTs on protected routes.
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequirePresenter validates the presenter JWT from the Authorization header.
func (m *AuthMiddleware) RequirePresenter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidatePresenterToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), PresenterIDKey, claims.PresenterID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireParticipant validates the channel JWT from the Authorization header
// or the token query parameter.
func (m *AuthMiddleware) RequireParticipant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateChannelToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
		ctx = context.WithValue(ctx, ParticipantIDKey, claims.ParticipantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPresenterID extracts the presenter id from the context.
func GetPresenterID(ctx context.Context) string {
	if v := ctx.Value(PresenterIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetSessionID extracts the channel-token session id from the context.
func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(SessionIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetParticipantID extracts the participant id from the context.
func GetParticipantID(ctx context.Context) string {
	if v := ctx.Value(ParticipantIDKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
