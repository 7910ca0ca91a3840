package auth

import (
	"errors"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const minPasswordLen = 8

// Password policy errors surface verbatim in 400 responses.
var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooWeak  = errors.New("password is too easy to guess")
)

// ValidateNewPassword enforces the policy applied wherever a password is
// set: registration, admin create, change, and reset confirm.
func ValidateNewPassword(plain string, userInputs ...string) error {
	if len(plain) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if zxcvbn.PasswordStrength(plain, userInputs).Score < 2 {
		return ErrPasswordTooWeak
	}
	return nil
}
