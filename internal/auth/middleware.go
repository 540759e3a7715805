package auth

import (
	"context"
	"fmt"
	"net/http"

	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/logger"
)

type contextKey string

const sessionKeyCtx contextKey = "session"

const (
	// RedirectSignedOut is where a protected route sends visitors without a session.
	RedirectSignedOut = "/"
	// RedirectNotAdmin is where an admin route sends everyone who is not an admin.
	RedirectNotAdmin = "/login"
)

type Middleware struct {
	Tokens     *TokenIssuer
	Sessions   *SessionStore
	CookieName string
	Logger     *logger.Logger
}

// WithSession puts sess on ctx and forwards its backend cookies on every
// backend call made with the returned context.
func WithSession(ctx context.Context, sess *Session) context.Context {
	ctx = context.WithValue(ctx, sessionKeyCtx, sess)
	return backend.WithCredentials(ctx, sess.Credentials)
}

// SessionFrom returns the session RequireUser stored, or nil.
func SessionFrom(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKeyCtx).(*Session); ok {
		return sess
	}
	return nil
}

func (m *Middleware) resolve(r *http.Request) (*Session, *Claims) {
	raw, err := ExtractTokenFromRequest(r, m.CookieName)
	if err != nil {
		return nil, nil
	}
	claims, err := m.Tokens.Verify(raw)
	if err != nil {
		m.Logger.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		return nil, nil
	}
	sess, err := m.Sessions.Get(r.Context(), claims.SessionID)
	if err != nil {
		m.Logger.Error("AUTH", fmt.Sprintf("Failed to load session %s: %v", claims.SessionID, err))
		return nil, claims
	}
	return sess, claims
}

// RequireUser lets signed-in users through and redirects everyone else to /.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := m.resolve(r)
		if sess == nil {
			http.Redirect(w, r, RedirectSignedOut, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// RequireAdmin redirects to /login unless the session user has the ADMIN role.
// The wrapped handler never runs for anyone else.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := m.resolve(r)
		if sess == nil || !sess.User.IsAdmin() {
			if sess != nil {
				m.Logger.LogSecurity("ADMIN_DENIED", fmt.Sprintf("user %d on %s", sess.User.ID, r.URL.Path))
			}
			http.Redirect(w, r, RedirectNotAdmin, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
