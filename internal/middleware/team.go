// Package middleware provides HTTP middleware for team isolation.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

// ContextKey is the type for context keys in this package.
type ContextKey string

const (
	// TeamIDKey is the context key for the current team ID.
	TeamIDKey ContextKey = "team_id"
	// MemberIDKey is the context key for the requesting member ID.
	MemberIDKey ContextKey = "member_id"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// TeamFromContext retrieves the team ID from the request context.
// Returns empty string if not set.
func TeamFromContext(ctx context.Context) string {
	if v := ctx.Value(TeamIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// MemberFromContext retrieves the requesting member ID from the request
// context. Returns empty string if not set.
func MemberFromContext(ctx context.Context) string {
	if v := ctx.Value(MemberIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// RequireTeam ensures a valid team ID is present. It extracts the team from
// the X-Team-ID header and the requesting member from X-Member-ID;
// authentication happens upstream, this layer only scopes the request.
//
// If no valid team is found, it returns 401 Unauthorized.
func RequireTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teamID := strings.TrimSpace(r.Header.Get("X-Team-ID"))
		if teamID == "" || !idPattern.MatchString(teamID) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing or invalid team"}`))
			return
		}

		ctx := context.WithValue(r.Context(), TeamIDKey, teamID)

		if memberID := strings.TrimSpace(r.Header.Get("X-Member-ID")); memberID != "" && idPattern.MatchString(memberID) {
			ctx = context.WithValue(ctx, MemberIDKey, memberID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
