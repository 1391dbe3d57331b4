package utils

import (
	"errors"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// Claims represents the JWT claims the auth service issues. The engine
// trusts tier and admin flags as delivered; verifying them is the auth
// service's problem.
type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Tier    string    `json:"tier"`
	IsAdmin bool      `json:"is_admin"`
	jwt.StandardClaims
}

// getJWTSecret returns the JWT secret from environment variable or a default for development
func getJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "sitespark_development_jwt_secret_key"
	}
	return secret
}

// GenerateToken creates a signed token, used by tests and local tooling;
// production tokens come from the auth service with the shared secret.
func GenerateToken(userID uuid.UUID, email, tier string, isAdmin bool, expiry time.Duration) (string, error) {
	claims := Claims{
		UserID:  userID,
		Email:   email,
		Tier:    tier,
		IsAdmin: isAdmin,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(expiry).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(getJWTSecret()))
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(getJWTSecret()), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}

	return claims, nil
}
