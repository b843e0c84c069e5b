// README: Bearer token verification contract shared by the JWT and Firebase verifiers.
package infra

import (
	"context"
	"errors"
)

const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

var ErrInvalidToken = errors.New("invalid token")

// Principal is the verified identity carried by a bearer token. Guilds lists the guild IDs
// the principal may act in; superadmins are not limited by it.
type Principal struct {
	UID    string
	Role   string
	Guilds []string
}

// TokenVerifier verifies a raw bearer token string and returns its principal.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Principal, error)
}

// principalFromClaims reads the role and guilds claims shared by both token formats.
func principalFromClaims(uid string, claims map[string]interface{}) *Principal {
	p := &Principal{UID: uid, Role: RoleMember}
	if r, ok := claims["role"].(string); ok && r != "" {
		p.Role = r
	}
	switch g := claims["guilds"].(type) {
	case []interface{}:
		for _, v := range g {
			if s, ok := v.(string); ok {
				p.Guilds = append(p.Guilds, s)
			}
		}
	case []string:
		p.Guilds = append(p.Guilds, g...)
	}
	return p
}
