package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"ecovia.org/internal/auth"
	"ecovia.org/internal/events"
	"ecovia.org/internal/obs"
)

// ReadyProbe reports backend readiness (e.g. DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer: routing, session handling and the route guard.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	accounts *auth.Service
	events   *events.Service
	sessions *SessionManager
	guard    *Guard
}

// Options wires the API's collaborators.
type Options struct {
	ReadyProbe ReadyProbe
	Version    string
	Accounts   *auth.Service
	Events     *events.Service
	Sessions   *SessionManager
}

func New(opts Options) (*API, error) {
	if opts.Sessions == nil {
		opts.Sessions = NewSessionManager(false)
	}
	guard, err := NewGuard(opts.Sessions, nil, nil)
	if err != nil {
		return nil, err
	}

	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: opts.ReadyProbe,
		version:    opts.Version,
		accounts:   opts.Accounts,
		events:     opts.Events,
		sessions:   opts.Sessions,
		guard:      guard,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// account flows
	a.mux.HandleFunc("/api/register", a.handleRegister)
	a.mux.HandleFunc("/api/login", a.handleLogin)
	a.mux.HandleFunc("/api/logout", a.handleLogout)
	a.mux.HandleFunc("/api/forgot-password", a.handleForgotPassword)
	a.mux.HandleFunc("/api/reset-password", a.handleResetPassword)
	a.mux.HandleFunc("/api/me", a.handleMe)

	// events and donations
	a.mux.HandleFunc("/api/events", a.handleEventsCollection)
	a.mux.HandleFunc("/api/events/", a.handleEventResource)
	a.mux.HandleFunc("/api/donations", a.handleDonationsCollection)
	a.mux.HandleFunc("/api/donations/total", a.handleDonationTotal)

	// admin user management
	a.mux.HandleFunc("/api/users", a.handleUsers)
	a.mux.HandleFunc("/api/users/", a.handleUserResource)
	a.mux.HandleFunc("/api/stats/users-per-month", a.handleUsersPerMonth)
	a.mux.HandleFunc("/api/stats/volunteers", a.handleVolunteerCount)

	// pages, so the guard's redirect matrix is exercised end to end
	registerPages(a.mux)

	return a, nil
}

// Handler returns the fully wrapped handler: metrics instrumentation
// around the guard around the mux.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.guard.Middleware(a.mux))
}

// Sessions exposes the cookie manager, mostly for tests.
func (a *API) Sessions() *SessionManager { return a.sessions }

// --- health and info handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "ecovia-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "ecovia-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the {success:false, message} shape every failure is
// reduced to at this boundary.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"message": msg,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// requirePrincipal returns the authenticated principal or writes a 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Principal{}, false
	}
	return principal, true
}

// requireAdmin returns the principal only when it carries the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return auth.Principal{}, false
	}
	if principal.UserType != auth.UserTypeAdmin {
		writeError(w, r, http.StatusForbidden, "admin access required")
		return auth.Principal{}, false
	}
	return principal, true
}
