package auth

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A purpose-tagged token is only accepted by the one
// operation that checks for its tag.
const (
	PurposePasswordReset = "password_reset"
	PurposeEmailVerify   = "email_verify"
)

const (
	defaultSessionTTL = 60 * time.Minute
	ResetTokenTTL     = 5 * time.Minute
	VerifyTokenTTL    = 60 * time.Minute
)

// ErrInvalidToken is the only error surfaced for any validation failure so
// callers cannot learn why a token was rejected.
var ErrInvalidToken = errors.New("invalid token")

func SessionTTL() time.Duration {
	if s := os.Getenv("JWT_TTL_MIN"); s != "" {
		if m, err := strconv.Atoi(s); err == nil && m > 0 {
			return time.Duration(m) * time.Minute
		}
	}
	return defaultSessionTTL
}

// Sign issues a stateless session token bound to the user's email and role.
func Sign(email, role string) (string, error) {
	return sign(jwt.MapClaims{"sub": email, "rol": role}, SessionTTL())
}

// SignPurpose issues a short-lived token restricted to one operation.
func SignPurpose(email, purpose string, ttl time.Duration) (string, error) {
	return sign(jwt.MapClaims{"sub": email, "type": purpose}, ttl)
}

func sign(claims jwt.MapClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims["exp"] = now.Add(ttl).Unix()
	claims["iat"] = now.Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// Verify checks signature and expiry and returns the embedded claims.
// All failures collapse into ErrInvalidToken.
func Verify(tokenStr string) (Claims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mapc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	email, _ := mapc["sub"].(string)
	if email == "" {
		return Claims{}, ErrInvalidToken
	}
	role, _ := mapc["rol"].(string)
	purpose, _ := mapc["type"].(string)
	return Claims{Email: email, Role: role, Purpose: purpose}, nil
}
