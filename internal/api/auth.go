package api

import (
	"crypto/subtle"
	"net/http"
	"sync"

	"vacancy/internal/config"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Auth authenticates API clients by key and rate-limits each key
// independently. Key comparison is constant-time.
type Auth struct {
	cfg     config.APIAuthConfig
	limit   config.APIRateLimitConfig
	logger  *zerolog.Logger
	mu      sync.Mutex
	limiter map[string]*rate.Limiter
}

func NewAuth(cfg config.APIAuthConfig, limit config.APIRateLimitConfig, logger *zerolog.Logger) *Auth {
	return &Auth{
		cfg:     cfg,
		limit:   limit,
		logger:  logger,
		limiter: make(map[string]*rate.Limiter),
	}
}

func (a *Auth) client(key string) *config.APIClientKey {
	for i := range a.cfg.APIKeys {
		candidate := &a.cfg.APIKeys[i]
		if subtle.ConstantTimeCompare([]byte(candidate.Key), []byte(key)) == 1 {
			return candidate
		}
	}
	return nil
}

func (a *Auth) limiterFor(key string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.limiter[key]
	if !ok {
		rps := a.limit.RPS
		if rps <= 0 {
			rps = 10
		}
		burst := a.limit.Burst
		if burst <= 0 {
			burst = int(rps)
		}
		l = rate.NewLimiter(rate.Limit(rps), burst)
		a.limiter[key] = l
	}
	return l
}

func (a *Auth) hasPermission(client *config.APIClientKey, perm string) bool {
	for _, p := range client.Permissions {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

// Middleware wraps a handler with key auth, a permission check and per-key
// rate limiting.
func (a *Auth) Middleware(perm string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next(w, r)
			return
		}

		key := r.Header.Get(a.cfg.HeaderAPIKey)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing API key")
			return
		}

		client := a.client(key)
		if client == nil {
			a.logger.Warn().Str("remote", r.RemoteAddr).Msg("API request with unknown key")
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		if !a.hasPermission(client, perm) {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		if !a.limiterFor(client.Key).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next(w, r)
	}
}
