package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"ecovia.org/internal/auth"
)

const (
	loginPath = "/login"
	homePath  = "/"
)

// defaultDashboards maps each protected dashboard prefix to the role its
// token must carry.
var defaultDashboards = map[string]auth.UserType{
	"/dashboard/admin":     auth.UserTypeAdmin,
	"/dashboard/volunteer": auth.UserTypeVolunteer,
	"/dashboard/donor":     auth.UserTypeDonor,
}

// defaultPublicPrefixes are the auth pages an already-authenticated user
// is bounced away from. /reset-password is deliberately not here: a
// logged-in user may still follow an emailed reset link.
var defaultPublicPrefixes = []string{"/login", "/register", "/forgot-password"}

// Guard is the request-level authorization gate. It classifies the path,
// inspects the session cookie and either forwards the request or issues a
// redirect. It never writes an error response: a bad token is simply "no
// session".
type Guard struct {
	sessions   *SessionManager
	dashboards map[string]auth.UserType
	public     []string
}

// NewGuard validates the prefix->role mapping up front so a typo in the
// route table fails at startup rather than silently allowing per-request.
func NewGuard(sessions *SessionManager, dashboards map[string]auth.UserType, public []string) (*Guard, error) {
	if sessions == nil {
		return nil, fmt.Errorf("guard: session manager is required")
	}
	if dashboards == nil {
		dashboards = defaultDashboards
	}
	if public == nil {
		public = defaultPublicPrefixes
	}
	for prefix, role := range dashboards {
		if !strings.HasPrefix(prefix, "/") || strings.TrimPrefix(prefix, "/") == "" {
			return nil, fmt.Errorf("guard: invalid protected prefix %q", prefix)
		}
		if !role.Valid() {
			return nil, fmt.Errorf("guard: prefix %q mapped to unknown role %q", prefix, role)
		}
	}
	for _, prefix := range public {
		if !strings.HasPrefix(prefix, "/") || prefix == "/" {
			return nil, fmt.Errorf("guard: invalid public prefix %q", prefix)
		}
	}
	return &Guard{sessions: sessions, dashboards: dashboards, public: public}, nil
}

// Middleware applies the guard to every request before any handler runs.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		isPublic := g.isPublic(path)
		requiredRole, isProtected := g.requiredRole(path)

		token, ok := g.sessions.Read(r)
		var claims *auth.Claims
		if ok {
			var err error
			claims, err = auth.ParseAndValidate(token)
			if err != nil {
				// Invalid or expired: behave as if no session exists.
				claims = nil
			}
		}

		if claims == nil {
			if isPublic || !isProtected {
				next.ServeHTTP(w, r)
				return
			}
			redirect(w, r, loginPath)
			return
		}

		if isProtected && claims.UserType != requiredRole {
			// Authenticated but wrong dashboard: home, not login.
			redirect(w, r, homePath)
			return
		}
		if isPublic {
			// Authenticated users may not see auth pages.
			redirect(w, r, homePath)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{
			Email:    claims.Email,
			UserType: claims.UserType,
		})
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) isPublic(path string) bool {
	for _, prefix := range g.public {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (g *Guard) requiredRole(path string) (auth.UserType, bool) {
	for prefix, role := range g.dashboards {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return role, true
		}
	}
	return "", false
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	code := http.StatusSeeOther
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		code = http.StatusFound
	}
	http.Redirect(w, r, target, code)
}
