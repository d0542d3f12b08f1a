package server

import (
	"net/http"
	"slices"
)

type OriginChecker struct {
	allowedOrigins []string
}

// NewOriginChecker accepts any origin when allowedOrigins is empty.
func NewOriginChecker(allowedOrigins []string) *OriginChecker {
	return &OriginChecker{
		allowedOrigins: allowedOrigins,
	}
}

func (c *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(c.allowedOrigins) == 0 {
		return true
	}

	return slices.Contains(c.allowedOrigins, "*") || slices.Contains(c.allowedOrigins, origin)
}
