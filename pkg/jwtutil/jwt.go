package jwtutil

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"erp-service/pkg/config"
)

// Purpose scopes a token to the flow it was issued for. A session token must
// never pass as a password-reset token and vice versa.
type Purpose string

const (
	PurposeSession       Purpose = "session"
	PurposePasswordReset Purpose = "password_reset"
	PurposeEmailVerify   Purpose = "email_verify"
)

var (
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidToken    = errors.New("invalid token")
	ErrPurposeMismatch = errors.New("token purpose mismatch")
)

var (
	secret     = []byte("erpservicesecretkey")
	sessionTTL = 24 * time.Hour
)

const (
	passwordResetTTL = 1 * time.Hour
	emailVerifyTTL   = 24 * time.Hour
)

// Initialize sets the signing key and session lifetime from configuration
func Initialize(cfg *config.JWTConfig) {
	if cfg.SigningKey != "" {
		secret = []byte(cfg.SigningKey)
	}
	if cfg.ExpirationHours > 0 {
		sessionTTL = time.Duration(cfg.ExpirationHours) * time.Hour
	}
}

// UserClaims represents the JWT claims carried by every issued token
type UserClaims struct {
	UserID  uint    `json:"user_id"`
	Email   string  `json:"email"`
	Role    string  `json:"role"`
	Name    string  `json:"name,omitempty"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

func ttlFor(purpose Purpose) time.Duration {
	switch purpose {
	case PurposePasswordReset:
		return passwordResetTTL
	case PurposeEmailVerify:
		return emailVerifyTTL
	default:
		return sessionTTL
	}
}

// GenerateToken creates a signed token for the given user and purpose
func GenerateToken(userID uint, email, role, name string, purpose Purpose) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		Name:    name,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttlFor(purpose))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses a token issued for the given purpose.
// A token is either fully valid or rejected, there is no partial-trust mode.
func ValidateToken(tokenString string, purpose Purpose) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return nil, ErrPurposeMismatch
	}

	return claims, nil
}
