package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	accessSecret  []byte
	refreshSecret []byte
)

var ErrInvalidToken = errors.New("invalid token")

// SetJWTSecrets configures the signing keys. Access and refresh tokens are
// signed with separate secrets so one can never be presented as the other.
func SetJWTSecrets(access, refresh string) {
	accessSecret = []byte(access)
	refreshSecret = []byte(refresh)
}

// Claims carries the owning user's identity inside both token kinds.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken mints a short-lived access token for the given user.
func GenerateAccessToken(userID uint, expireMinutes int) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireMinutes) * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(accessSecret)
}

// GenerateRefreshToken mints a refresh token with no expiry claim. Its
// lifetime is governed by registry membership, not time. A unique token id
// keeps two tokens minted within the same second from colliding.
func GenerateRefreshToken(userID uint) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(refreshSecret)
}

// ParseAccessToken validates an access token and returns its claims.
func ParseAccessToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, accessSecret)
}

// ParseRefreshToken validates a refresh token's signature and structure.
// Registry membership is checked separately by the auth service.
func ParseRefreshToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, refreshSecret)
}

func parseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
