package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequireTeamMissingHeader(t *testing.T) {
	handler := RequireTeam(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called without a team")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/team/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON error body, got content type %q", ct)
	}
}

func TestRequireTeamInvalidHeader(t *testing.T) {
	invalid := []string{
		"has space",
		"semi;colon",
		strings.Repeat("a", 65),
	}

	for _, teamID := range invalid {
		handler := RequireTeam(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatalf("handler should not be called for team id %q", teamID)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Team-ID", teamID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("team id %q: expected 401, got %d", teamID, rec.Code)
		}
	}
}

func TestRequireTeamSetsContext(t *testing.T) {
	var gotTeam, gotMember string
	handler := RequireTeam(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTeam = TeamFromContext(r.Context())
		gotMember = MemberFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Team-ID", "team-1")
	req.Header.Set("X-Member-ID", "member_9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotTeam != "team-1" {
		t.Fatalf("expected team-1 in context, got %q", gotTeam)
	}
	if gotMember != "member_9" {
		t.Fatalf("expected member_9 in context, got %q", gotMember)
	}
}

func TestRequireTeamIgnoresInvalidMember(t *testing.T) {
	var gotMember string
	handler := RequireTeam(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMember = MemberFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Team-ID", "team-1")
	req.Header.Set("X-Member-ID", "bad member!")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotMember != "" {
		t.Fatalf("expected no member in context, got %q", gotMember)
	}
}

func TestContextAccessorsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := TeamFromContext(req.Context()); got != "" {
		t.Fatalf("expected empty team, got %q", got)
	}
	if got := MemberFromContext(req.Context()); got != "" {
		t.Fatalf("expected empty member, got %q", got)
	}
}
