package apperrors

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrExternalService = errors.New("external service error")
	ErrState           = errors.New("invalid state")

	// OTP verification reasons; a missing challenge is plain ErrNotFound.
	ErrOTPExpired  = errors.New("otp expired")
	ErrOTPMismatch = errors.New("otp mismatch")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsExternal(err error) bool {
	return errors.Is(err, ErrExternalService)
}
