package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is the uniform login failure. It deliberately does
	// not distinguish an unknown user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Err2FARequired signals that the account needs a TOTP code to finish login.
	Err2FARequired = errors.New("two-factor code required")

	// ErrInvalidOTP is the uniform verification failure for a mismatched or
	// expired code.
	ErrInvalidOTP = errors.New("invalid or expired OTP")

	// ErrUpstream marks failures of the image host or mail dispatcher.
	ErrUpstream = errors.New("upstream service failure")
)

// ValidationError is a client error carrying a human-readable message.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
