package application

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wireloop/mcpgo/internal/domain"
)

type identityContextKey struct{}

// IdentityFromContext returns the Identity attached by AuthMiddleware, if
// the request passed through it and auth is enabled.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(domain.Identity)
	return id, ok
}

// AuthMiddleware gates the configured secured paths behind an API key,
// extracted from a header or, if allowed, a query parameter. It wraps next
// unconditionally and decides per-request whether the path requires
// credentials.
type AuthMiddleware struct {
	cfg       domain.AuthConfig
	validator domain.APIKeyValidator
	secured   map[string]struct{}
	logger    *Logger
}

// NewAuthMiddleware builds a middleware enforcing cfg over the given
// validator. securedPaths is typically cfg.SecuredPathsOrDefault().
func NewAuthMiddleware(cfg domain.AuthConfig, validator domain.APIKeyValidator, securedPaths []string, logger *Logger) *AuthMiddleware {
	set := make(map[string]struct{}, len(securedPaths))
	for _, p := range securedPaths {
		set[p] = struct{}{}
	}
	return &AuthMiddleware{cfg: cfg, validator: validator, secured: set, logger: logger}
}

// Wrap returns an http.Handler that enforces auth before delegating to next.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.cfg.Enabled || !m.requiresAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := m.extractKey(r)
		if key == "" {
			m.logger.LogError("rejected request: missing api key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			writeUnauthorized(w, "Missing API key")
			return
		}
		if !m.validator.IsValid(key) {
			m.logger.LogError("rejected request: invalid api key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			writeUnauthorized(w, "Invalid API key")
			return
		}

		identity, err := m.validator.Identity(key)
		if err != nil {
			m.logger.LogError("rejected request: identity resolution failed", "path", r.URL.Path, "error", err)
			writeUnauthorized(w, "Invalid API key")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeUnauthorized writes the 401 body shape spec §4.I mandates:
// {"error":"Unauthorized","message":"..."}.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "Unauthorized",
		"message": message,
	})
}

func (m *AuthMiddleware) requiresAuth(path string) bool {
	_, ok := m.secured[path]
	return ok
}

func (m *AuthMiddleware) extractKey(r *http.Request) string {
	header := m.cfg.HeaderName
	if header == "" {
		header = "X-API-Key"
	}

	if v := r.Header.Get(header); v != "" {
		return v
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	if m.cfg.AllowQueryKey {
		param := m.cfg.QueryParam
		if param == "" {
			param = "api_key"
		}
		return r.URL.Query().Get(param)
	}

	return ""
}
