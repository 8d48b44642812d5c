package security

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"docchat/pkg/logger"
)

// SecConfig carries the request-gating settings derived from the
// effective server config.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	FrontendKeys   map[string]struct{}
	// AllowUnauth lets requests through without an API key; intended for
	// local single-user deployments, which are the common case for a
	// personal document-chat install.
	AllowUnauth bool
}

// Middleware returns the request-gating middleware: CORS, optional API
// key check and per-key/IP rate limiting. GET /healthz always passes so
// deployment probes work without credentials.
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-API-Key")
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if r.URL.Path == "/healthz" && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key, hasKey := apiKey(r)
			if !hasKey {
				key = clientIP(r)
			}
			if len(cfg.FrontendKeys) > 0 && !cfg.AllowUnauth {
				if _, ok := cfg.FrontendKeys[key]; !ok {
					logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
			}

			if !limiters.Allow(key) {
				logger.Warn("rate_limited", "has_api_key", hasKey, "path", r.URL.Path)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			logger.Debug("request_allowed", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func apiKey(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		if k := strings.TrimSpace(auth[7:]); k != "" {
			return k, true
		}
	}
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k, true
	}
	return "", false
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	// direct connections expected; ignore X-Forwarded-For
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg SecConfig
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.cfg.RPS
	if rps <= 0 {
		rps = 20
	}
	burst := p.cfg.Burst
	if burst <= 0 {
		burst = 40
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}
