// README: Tests for bearer auth and guild access middleware.
package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"scumfare/internal/http/middleware"
	"scumfare/internal/infra"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	principal *infra.Principal
	err       error
	gotToken  string
}

func (s *stubVerifier) VerifyToken(_ context.Context, token string) (*infra.Principal, error) {
	s.gotToken = token
	return s.principal, s.err
}

func newTestRouter(verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(verifier))
	r.GET("/test", func(c *gin.Context) {
		caller, _ := middleware.CallerFrom(c)
		c.JSON(http.StatusOK, gin.H{"uid": caller.UID, "role": caller.Role})
	})
	g := r.Group("/guilds/:guild_id")
	g.GET("/read", middleware.GuildMember(), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.PUT("/write", middleware.GuildAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingHeader(t *testing.T) {
	r := newTestRouter(&stubVerifier{principal: &infra.Principal{UID: "user1"}})
	if w := do(r, http.MethodGet, "/test", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_InvalidBearerPrefix(t *testing.T) {
	r := newTestRouter(&stubVerifier{principal: &infra.Principal{UID: "user1"}})
	if w := do(r, http.MethodGet, "/test", "Token sometoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_VerifierError(t *testing.T) {
	r := newTestRouter(&stubVerifier{err: errors.New("bad token")})
	if w := do(r, http.MethodGet, "/test", "Bearer invalidtoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidToken_CallerPopulated(t *testing.T) {
	v := &stubVerifier{principal: &infra.Principal{UID: "op123", Role: infra.RoleAdmin}}
	r := newTestRouter(v)
	w := do(r, http.MethodGet, "/test", "Bearer validtoken")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if v.gotToken != "validtoken" {
		t.Errorf("verifier got token %q", v.gotToken)
	}
	body := w.Body.String()
	if !strings.Contains(body, "op123") || !strings.Contains(body, infra.RoleAdmin) {
		t.Errorf("expected uid and role in body, got %s", body)
	}
}

func TestGuildMember(t *testing.T) {
	member := &stubVerifier{principal: &infra.Principal{UID: "m", Role: infra.RoleMember, Guilds: []string{"g1"}}}
	r := newTestRouter(member)
	if w := do(r, http.MethodGet, "/guilds/g1/read", "Bearer t"); w.Code != http.StatusOK {
		t.Errorf("own guild: expected 200, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/guilds/g2/read", "Bearer t"); w.Code != http.StatusForbidden {
		t.Errorf("other guild: expected 403, got %d", w.Code)
	}
}

func TestGuildAdmin(t *testing.T) {
	tests := []struct {
		name      string
		principal infra.Principal
		want      int
	}{
		{"member of guild", infra.Principal{UID: "m", Role: infra.RoleMember, Guilds: []string{"g1"}}, http.StatusForbidden},
		{"admin of guild", infra.Principal{UID: "a", Role: infra.RoleAdmin, Guilds: []string{"g1"}}, http.StatusOK},
		{"admin of other guild", infra.Principal{UID: "a", Role: infra.RoleAdmin, Guilds: []string{"g2"}}, http.StatusForbidden},
		{"superadmin", infra.Principal{UID: "s", Role: infra.RoleSuperAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.principal
			r := newTestRouter(&stubVerifier{principal: &p})
			if w := do(r, http.MethodPut, "/guilds/g1/write", "Bearer t"); w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
