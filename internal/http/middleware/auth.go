// README: Bearer auth middleware; stores the verified caller on the gin context.
package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"scumfare/internal/infra"
)

const callerKey = "scumfare.caller"

// Caller is the authenticated principal of one request. Handlers read it once and pass it
// down explicitly.
type Caller struct {
	UID    string
	Role   string
	Guilds []string
}

// CanRead reports whether the caller may read data for guildID.
func (c Caller) CanRead(guildID string) bool {
	return c.Role == infra.RoleSuperAdmin || slices.Contains(c.Guilds, guildID)
}

// CanAdminister reports whether the caller may change pricing for guildID.
func (c Caller) CanAdminister(guildID string) bool {
	if c.Role == infra.RoleSuperAdmin {
		return true
	}
	return c.Role == infra.RoleAdmin && slices.Contains(c.Guilds, guildID)
}

func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		p, err := verifier.VerifyToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil || p == nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		c.Set(callerKey, Caller{UID: p.UID, Role: p.Role, Guilds: p.Guilds})
		c.Next()
	}
}

// CallerFrom returns the caller stored by Auth.
func CallerFrom(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}

// GuildMember rejects callers without access to the :guild_id path parameter.
func GuildMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "unauthenticated")
			return
		}
		if !caller.CanRead(c.Param("guild_id")) {
			abort(c, http.StatusForbidden, "forbidden", "no access to guild")
			return
		}
		c.Next()
	}
}

// GuildAdmin rejects callers who may not change pricing for the :guild_id path parameter.
func GuildAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "unauthenticated")
			return
		}
		if !caller.CanAdminister(c.Param("guild_id")) {
			abort(c, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}
