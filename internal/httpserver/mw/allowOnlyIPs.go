package mw

import (
	"net/http"

	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/utils"
)

// AllowOnlyCIDRS restricts operational endpoints to the given IPs/CIDRs.
// An empty list does NOT filter (passthrough).
// trustProxy should be true when running behind a trusted reverse proxy.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("request rejected by address filter",
					logger.String("path", r.URL.Path),
					logger.String("client_ip", ip),
					logger.String("remote_addr", r.RemoteAddr),
					logger.Bool("trust_proxy", trustProxy))
				forbid(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
