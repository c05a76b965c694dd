package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long a session token stays valid.
const TokenTTL = 72 * time.Hour

var (
	secretMu     sync.RWMutex
	jwtSecretKey []byte
)

// ErrNotConfigured is returned when no signing secret was set.
var ErrNotConfigured = errors.New("auth: signing secret not configured")

// Configure sets the key used to sign session tokens.
func Configure(secret string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecretKey = []byte(secret)
}

func secret() ([]byte, error) {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(jwtSecretKey) == 0 {
		return nil, ErrNotConfigured
	}
	return jwtSecretKey, nil
}

// GenerateToken creates a new JWT for a given user ID.
func GenerateToken(userID int64) (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,                   // "sub" (Subject) is the standard claim for User ID
		"exp": now.Add(TokenTTL).Unix(), // Expires in 3 days
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken parses and validates a JWT token string.
// It returns the user ID (subject) if the token is valid.
func ValidateToken(tokenString string) (int64, error) {
	key, err := secret()
	if err != nil {
		return 0, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// This ensures the token was signed with the same algorithm we use.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return 0, err // Token parsing failed (e.g., expired, malformed)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userIDFloat, ok := claims["sub"].(float64)
		if !ok {
			return 0, errors.New("invalid subject claim")
		}
		// Convert the float64 (JSON's number type) to int64
		return int64(userIDFloat), nil
	}

	return 0, errors.New("invalid token")
}
