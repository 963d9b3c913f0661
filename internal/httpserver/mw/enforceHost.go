package mw

import (
	"net/http"
	"strings"

	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/utils"
)

// EnforceHost allows requests only if the Host header matches one of the allowed hosts.
// Patterns may be exact ("gateway.local") or wildcards ("*.example.com"); ports are ignored.
// If allowedHosts is empty, it acts as a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(utils.ParseHostNoPort(r.Host))
			for _, pattern := range allowedHosts {
				if matchHost(host, strings.ToLower(pattern)) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("request rejected by host filter",
				logger.String("path", r.URL.Path),
				logger.String("host", r.Host))
			forbid(w)
		})
	}
}

// matchHost reports whether host equals pattern or is a subdomain of a "*." pattern.
func matchHost(host, pattern string) bool {
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix)
	}
	return host == pattern
}
