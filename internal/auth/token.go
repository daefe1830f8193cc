/* JWT 토큰 발급 및 검증 */

package auth

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v4"

	"LinkHub_Backend/internal/apperr"
)

const tokenIssuer = "linkhub-api"

// Claims 구조체, JWT 페이로드에 사용자 ID 포함
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies identity tokens with a process-wide HMAC key.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer builds an issuer. An empty secret falls back to a random key,
// which means tokens do not survive a restart.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Fatal("failed to generate jwt key", "error", err)
		}
		log.Warn("auth.jwt_secret is not set, using a random key; tokens will not survive a restart")
	}
	return &TokenIssuer{key: key, ttl: ttl, now: time.Now}
}

// Issue 토큰 생성
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.key)
	if err != nil {
		return "", apperr.NewInternal("failed to sign token", err)
	}
	return tokenString, nil
}

// Verify 토큰 검증, 실패 시 항상 Authentication 에러
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperr.NewAuthentication("Token has expired", err)
		}
		return nil, apperr.NewAuthentication("Invalid token", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperr.NewAuthentication("Invalid token", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}
