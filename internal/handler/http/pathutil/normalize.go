package pathutil

import (
	"regexp"
	"strings"
)

// pathPattern pairs a route regex with its normalized template.
type pathPattern struct {
	pattern  *regexp.Regexp
	template string
}

// pathPatterns lists the dynamic routes, most specific first. Pre-compiled at
// initialization so normalization stays cheap on the request path.
var pathPatterns = []*pathPattern{
	{pattern: regexp.MustCompile(`^/api/triggers/\d+$`), template: "/api/triggers/:id"},
	{pattern: regexp.MustCompile(`^/api/callbacks/\d+$`), template: "/api/callbacks/:id"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label
// cardinality explosion. Paths embedding an ID (e.g. /api/triggers/123)
// collapse to template form (/api/triggers/:id); static paths pass through
// unchanged.
//
// Query parameters and trailing slashes are stripped first:
//
//	NormalizePath("/api/triggers/123")        // "/api/triggers/:id"
//	NormalizePath("/api/triggers/123?x=1")    // "/api/triggers/:id"
//	NormalizePath("/api/notifications/stream") // unchanged
//	NormalizePath("/healthz")                  // unchanged
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.pattern.MatchString(path) {
			return p.template
		}
	}

	// Unknown paths pass through. The router rejects anything outside the
	// fixed route set, so stray labels stay bounded.
	return path
}
