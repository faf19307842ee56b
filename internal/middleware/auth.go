package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/tinyu/internal/auth"
	"github.com/MikhailRaia/tinyu/internal/model"
)

var errLoginRequired = errors.New("login required")

type contextKey string

// UserIDKey is the context key used to store authenticated user ID.
const UserIDKey contextKey = "userID"

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "tinyu_session"

// UserLookup resolves the user a session token refers to.
type UserLookup interface {
	User(ctx context.Context, id string) (model.User, error)
}

// AuthMiddleware checks session cookies issued at login.
type AuthMiddleware struct {
	jwtService *auth.JWTService
	users      UserLookup
}

// NewAuthMiddleware creates an AuthMiddleware with the provided JWT service.
func NewAuthMiddleware(jwtService *auth.JWTService, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

// RequireSession lets the request through only with a valid session of a
// registered user. A session of a user that no longer exists is answered
// with 403 and the cookie is cleared.
func (a *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errLoginRequired)
			return
		}

		claims, err := a.jwtService.ValidateToken(cookie.Value)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected session token")
			writeError(w, http.StatusUnauthorized, errLoginRequired)
			return
		}

		user, err := a.users.User(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownUser) {
				ClearSessionCookie(w)
				writeError(w, http.StatusForbidden, auth.ErrUnknownUser)
				return
			}
			log.Error().Err(err).Str("userID", claims.UserID).Msg("Failed to load session user")
			writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), user.ID)))
	})
}

// SetSessionCookie stores token in an HttpOnly cookie living as long as the token.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie tells the client to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext extracts the authenticated user ID from context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// writeError answers with the same {"error": ...} body as the handlers.
func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		log.Debug().Err(encErr).Msg("Failed to write error response")
	}
}
