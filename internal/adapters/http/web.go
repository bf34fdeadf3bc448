package web

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"eagles/internal/adapters/email"
	"eagles/internal/adapters/http/middleware"
	"eagles/internal/application/identity"
	"eagles/internal/application/seed"
	"eagles/internal/application/sessions"
	"eagles/internal/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps holds the application services the handlers call.
type Deps struct {
	Identity *identity.Store
	Sessions *sessions.Store
	Metrics  metrics.Recorder    // optional
	Gatherer prometheus.Gatherer // optional; nil disables /metrics
	Sender   email.Sender        // optional; nil disables promotion notices
	From     string
	ReplyTo  string
	Now      func() time.Time  // optional
	Captains map[string]string // optional; defaults to the built-in squads
}

// Options configures the middleware chain.
type Options struct {
	CSRFKey     []byte // nil selects a per-process random key
	Secure      bool   // production cookies
	RateLimit   int    // requests per second per IP
	SlowRequest time.Duration
}

// Server serves the JSON API.
type Server struct {
	identity *identity.Store
	sessions *sessions.Store
	metrics  metrics.Recorder
	gatherer prometheus.Gatherer
	sender   email.Sender
	from     string
	replyTo  string
	now      func() time.Time
	captains map[string]string
	logins   *middleware.Logins
	secure   bool
}

// NewServer creates a Server with an empty login table.
// PRE: deps.Identity and deps.Sessions are non-nil and loaded
func NewServer(deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Captains == nil {
		deps.Captains = seed.Captains()
	}
	return &Server{
		identity: deps.Identity,
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
		gatherer: deps.Gatherer,
		sender:   deps.Sender,
		from:     deps.From,
		replyTo:  deps.ReplyTo,
		now:      deps.Now,
		captains: deps.Captains,
		logins:   middleware.NewLogins(),
	}
}

// Logins exposes the login token table.
func (s *Server) Logins() *middleware.Logins {
	return s.logins
}

// csrfKeyOrRandom returns key, or a random 32-byte key when key is nil.
func csrfKeyOrRandom(key []byte) []byte {
	if key != nil {
		return key
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate CSRF key: " + err.Error())
	}
	slog.Warn("csrf_key_random", "detail", "logins made with form posts won't survive restart; set EAGLES_CSRF_KEY")
	return key
}

// NewMux wires HTTP handlers and middleware for the app.
// The returned stop func releases the rate limiter; call it on shutdown.
func NewMux(s *Server, opts Options) (http.Handler, func()) {
	s.secure = opts.Secure
	if opts.RateLimit < 1 {
		opts.RateLimit = 10
	}
	limiter := middleware.NewRateLimiter(opts.RateLimit)

	// Outermost first: RequestID, Timing, RateLimit, Auth, CSRF, SecurityHeaders, Router.
	h := middleware.Chain(s.Routes(),
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKeyOrRandom(opts.CSRFKey), opts.Secure, nil),
		middleware.Auth(s.logins),
		middleware.RateLimit(limiter),
		middleware.Timing(s.metrics, opts.SlowRequest),
		chimw.RequestID,
	)
	return h, limiter.Stop
}

// Routes builds the router without the middleware chain.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
		r.Get("/active", s.handleActive)

		r.Get("/players", s.handlePlayers)
		r.Get("/players/{username}", s.handlePlayer)
		r.Get("/squads", s.handleSquads)

		r.Get("/sessions", s.handleSessions)
		r.Get("/sessions/{id}", s.handleSession)
		r.Get("/history", s.handleHistory)
		r.Get("/calendar", s.handleCalendar)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin)

			r.Get("/me", s.handleMe)
			r.Patch("/players/{username}", s.handleUpdatePlayer)

			r.Post("/sessions", s.handleCreateSession)
			r.Patch("/sessions/{id}", s.handleUpdateSession)
			r.Delete("/sessions/{id}", s.handleDeleteSession)
			r.Post("/sessions/{id}/enroll", s.handleEnroll)
			r.Post("/sessions/{id}/withdraw", s.handleWithdraw)

			r.Post("/sessions/{id}/teams", s.handleGenerateTeams)
			r.Delete("/sessions/{id}/teams", s.handleClearTeams)
			r.Post("/sessions/{id}/teams/swap", s.handleSwapPlayers)
			r.Put("/sessions/{id}/score", s.handleRecordScore)
		})
	})
	return r
}
