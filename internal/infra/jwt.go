// README: HS256 JWT verifier for tokens issued by the dashboard login backend.
package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

type jwtVerifier struct {
	secret []byte
	parser *jwtlib.Parser
}

func NewJWTVerifier(secret string) (TokenVerifier, error) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return nil, fmt.Errorf("jwt: empty secret key")
	}
	return &jwtVerifier{
		secret: []byte(s),
		parser: jwtlib.NewParser(
			jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
			jwtlib.WithExpirationRequired(),
		),
	}, nil
}

func (v *jwtVerifier) VerifyToken(_ context.Context, raw string) (*Principal, error) {
	claims := jwtlib.MapClaims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(*jwtlib.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return principalFromClaims(sub, claims), nil
}

// IssueJWT signs a token for uid. The dashboard login backend owns issuance in production;
// this exists for tooling and tests.
func IssueJWT(secret, uid, role string, guilds []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"sub":    uid,
		"role":   role,
		"guilds": guilds,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
}
