// Package auth issues and verifies the HS256 access tokens used by the HTTP
// API. Tokens are a transport convenience only; the durable session document
// remains the source of truth for expiry and disabled accounts.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkarpovs/crewtally/internal/common"
)

// Claims carries the standard claims plus the authenticated username.
type Claims struct {
	jwt.RegisteredClaims
	Username string
}

// GenerateToken signs a token for the given username.
func GenerateToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUsernameFromToken parses and validates a token and returns the username
// claim.
func GetUsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Username, nil
}
