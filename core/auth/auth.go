// Package auth handles password hashing and JWT issuance for back-office
// and partner accounts.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"digitalsight/config"
	"digitalsight/model"
)

var (
	jwtSecret []byte
	jwtExpiry time.Duration
)

// Init configures the token secret and lifetime.
func Init(cfg *config.Config) {
	jwtSecret = []byte(cfg.JWTSecret)
	jwtExpiry = time.Duration(cfg.JWTExpiryHours) * time.Hour
}

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword compares a password with a bcrypt hash.
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims carries the actor identity and capability record inside the token.
type Claims struct {
	UserID      string            `json:"userId"`
	Name        string            `json:"name"`
	Role        model.Role        `json:"role"`
	LabelID     string            `json:"labelId,omitempty"`
	Permissions model.Permissions `json:"permissions"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed JWT for a user.
func GenerateToken(user *model.User) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("auth not initialized")
	}

	claims := Claims{
		UserID:      user.ID,
		Name:        user.Name,
		Role:        user.Role,
		LabelID:     user.LabelID,
		Permissions: user.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtExpiry)),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ActorFromClaims builds the engine-facing actor from token claims.
func ActorFromClaims(claims *Claims) model.Actor {
	return model.Actor{
		UserID:      claims.UserID,
		Name:        claims.Name,
		Role:        claims.Role,
		LabelID:     claims.LabelID,
		Permissions: claims.Permissions,
	}
}
