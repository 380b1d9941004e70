package token

import (
	"crypto/sha512"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hollowtree/userhub/internal/reqerror"
)

// TTL is the validity window embedded in every issued token.
const TTL = 30 * time.Minute

// Claims is the payload carried by a session token: the registered claim
// set plus the login identifier the token represents.
type Claims struct {
	jwt.RegisteredClaims
	Identifier string `json:"identifier"`
}

// Service issues and verifies signed session tokens using a process-wide
// secret, and computes the one-way digest under which a token is persisted.
type Service struct {
	secret []byte
	ttl    time.Duration
	node   *snowflake.Node
}

// NewService constructs a Service. The snowflake node provides a unique jti
// per issued token so two logins in the same second never collide on the
// same digest.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if ttl <= 0 {
		ttl = TTL
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	return &Service{secret: []byte(secret), ttl: ttl, node: node}, nil
}

// Issue signs a token embedding identifier with an expiry ttl from now.
func (s *Service) Issue(identifier string) (string, error) {
	if len(s.secret) == 0 {
		return "", reqerror.Internal("server configuration error")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.node.Generate().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Identifier: identifier,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", reqerror.Internal("server configuration error")
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identifier.
func (s *Service) Verify(tokenString string) (string, error) {
	if len(s.secret) == 0 {
		return "", reqerror.Internal("server configuration error")
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", reqerror.Unauthorized("token has expired")
		}
		return "", reqerror.Unauthorized("invalid token")
	}
	if !tok.Valid {
		return "", reqerror.Unauthorized("invalid token")
	}
	return claims.Identifier, nil
}

// Digest returns the SHA-512 digest of the raw token string. The digest is
// the only form in which a token is ever persisted or looked up.
func (s *Service) Digest(tokenString string) []byte {
	sum := sha512.Sum512([]byte(tokenString))
	return sum[:]
}

// TTLWindow reports the configured validity window, used when recording a
// digest expiry alongside a freshly issued token.
func (s *Service) TTLWindow() time.Duration { return s.ttl }
