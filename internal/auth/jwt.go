package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"market/internal/market"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the resolved caller attached to a request context.
type Identity struct {
	MemberID string
	Username string
	Role     market.Role
}

type claims struct {
	Username string      `json:"username"`
	Role     market.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	Secret []byte
	TTL    time.Duration
}

func (m *TokenManager) Issue(member market.Member) (string, error) {
	now := time.Now()
	c := claims{
		Username: member.Username,
		Role:     member.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.Secret)
}

func (m *TokenManager) Verify(token string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	return Identity{MemberID: c.Subject, Username: c.Username, Role: c.Role}, nil
}
