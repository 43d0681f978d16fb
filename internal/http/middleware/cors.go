package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowedHeaders = "Authorization, Content-Type, X-Request-Id"
	corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// CORS echoes allowed origins back to browsers. Entries may be exact origins,
// "*" for any origin, or a leading-wildcard host such as
// "https://*.healthhub.app" matching any subdomain.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			allowed := origin != "" && policy.allows(origin)
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Expose-Headers", "X-Request-Id")
				h.Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				if !allowed {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type originPolicy struct {
	any      bool
	exact    map[string]struct{}
	suffixes []wildcardOrigin
}

type wildcardOrigin struct {
	scheme string
	suffix string
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: map[string]struct{}{}}
	for _, origin := range origins {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		switch {
		case origin == "":
		case origin == "*":
			p.any = true
		case strings.Contains(origin, "://*."):
			scheme, host, _ := strings.Cut(origin, "://")
			p.suffixes = append(p.suffixes, wildcardOrigin{scheme: scheme + "://", suffix: strings.TrimPrefix(host, "*")})
		default:
			p.exact[origin] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, w := range p.suffixes {
		if !strings.HasPrefix(origin, w.scheme) {
			continue
		}
		host := strings.TrimPrefix(origin, w.scheme)
		if strings.HasSuffix(host, w.suffix) && len(host) > len(w.suffix) {
			return true
		}
	}
	return false
}
