package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// LoginTTL is how long a login token stays valid.
const LoginTTL = 24 * time.Hour

// LoginCookieName carries the login token.
const LoginCookieName = "eagles_session"

type loginKey struct{}

// Login is an authenticated API client.
type Login struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// Logins holds issued login tokens in memory. A restart logs everyone out.
type Logins struct {
	mu    sync.Mutex
	byTok map[string]Login
	now   func() time.Time
}

// NewLogins returns an empty token store.
func NewLogins() *Logins {
	return &Logins{byTok: map[string]Login{}, now: time.Now}
}

// Issue creates a token for username.
// POST: Lookup(token) succeeds until LoginTTL has passed or Revoke is called
func (l *Logins) Issue(username string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.byTok[token] = Login{Token: token, Username: username, ExpiresAt: l.now().Add(LoginTTL)}
	return token, nil
}

// Lookup returns the login for token. Expired tokens are dropped on sight.
func (l *Logins) Lookup(token string) (Login, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	login, ok := l.byTok[token]
	if !ok {
		return Login{}, false
	}
	if !l.now().Before(login.ExpiresAt) {
		delete(l.byTok, token)
		return Login{}, false
	}
	return login, true
}

// Revoke forgets token. Unknown tokens are ignored.
func (l *Logins) Revoke(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byTok, token)
}

// Len counts the stored tokens, expired ones included until they are looked up.
func (l *Logins) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byTok)
}

// Auth attaches the caller's Login to the request context when the cookie is valid.
// Anonymous requests pass through; guard routes with RequireLogin.
func Auth(logins *Logins) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(LoginCookieName); err == nil && c.Value != "" {
				if login, ok := logins.Lookup(c.Value); ok {
					r = r.WithContext(WithLogin(r.Context(), login))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin answers 401 for requests without a Login.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := LoginFrom(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "login required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginFrom returns the Login stored by Auth.
func LoginFrom(ctx context.Context) (Login, bool) {
	login, ok := ctx.Value(loginKey{}).(Login)
	return login, ok
}

// WithLogin stores login in ctx.
func WithLogin(ctx context.Context, login Login) context.Context {
	return context.WithValue(ctx, loginKey{}, login)
}

// SetLoginCookie hands token to the client.
func SetLoginCookie(w http.ResponseWriter, token string, secure bool) {
	writeLoginCookie(w, token, int(LoginTTL/time.Second), secure)
}

// ClearLoginCookie tells the client to drop its token.
func ClearLoginCookie(w http.ResponseWriter, secure bool) {
	writeLoginCookie(w, "", -1, secure)
}

func writeLoginCookie(w http.ResponseWriter, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     LoginCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
