package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/insight-deck/core/internal/config"
)

func buildCORSConfig(cfg *config.AppConfig) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After", "X-Reports-Remaining"},
		AllowCredentials: true,
	}

	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsConfig
}

func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(origin))
	}
	return strings.ToLower(u.Hostname())
}

// matchOriginPattern matches an exact host or a "*.example.com" wildcard
// covering the apex and all subdomains.
func matchOriginPattern(pattern, host string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	if p == "" || host == "" {
		return false
	}
	if suffix, ok := strings.CutPrefix(p, "*."); ok {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}
	return host == p
}
