package api

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// credential is one user/password pair bound to a role.
type credential struct {
	role Role
	user string
	pass string
}

func (c credential) set() bool { return c.user != "" && c.pass != "" }

// authConfig holds credentials in match order. Auth is on once admin is set.
type authConfig struct {
	creds   []credential
	enabled bool
}

var auth *authConfig

// InitAuth loads credentials from GAMEMAP_ADMIN_USER/PASS and
// GAMEMAP_OPERATOR_USER/PASS (each also via *_FILE). Without admin
// credentials every request is treated as admin.
func InitAuth() error {
	secrets, err := config.ResolveSecrets(
		"GAMEMAP_ADMIN_USER", "GAMEMAP_ADMIN_PASS",
		"GAMEMAP_OPERATOR_USER", "GAMEMAP_OPERATOR_PASS",
	)
	if err != nil {
		return err
	}

	admin := credential{role: RoleAdmin, user: secrets["GAMEMAP_ADMIN_USER"], pass: secrets["GAMEMAP_ADMIN_PASS"]}
	operator := credential{role: RoleOperator, user: secrets["GAMEMAP_OPERATOR_USER"], pass: secrets["GAMEMAP_OPERATOR_PASS"]}
	auth = &authConfig{
		creds:   []credential{admin, operator},
		enabled: admin.set(),
	}
	Logger().Info("auth initialized", zap.Bool("enabled", auth.enabled))
	return nil
}

// IsAuthEnabled returns true if authentication is configured.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate returns the role for the request's basic auth, or "".
func authenticate(r *http.Request) Role {
	if !IsAuthEnabled() {
		return RoleAdmin
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	for _, c := range auth.creds {
		if c.set() && secureCompare(user, c.user) && secureCompare(pass, c.pass) {
			return c.role
		}
	}
	return ""
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="GameMap"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// RequireRole wraps a handler and requires one of the specified roles.
func RequireRole(handler http.HandlerFunc, allowedRoles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				handler(w, r)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// RequireAnyRole wraps a handler requiring admin OR operator role.
func RequireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin, RoleOperator)
}

// RequireAdmin wraps a handler requiring admin role only.
func RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return RequireRole(handler, RoleAdmin)
}
