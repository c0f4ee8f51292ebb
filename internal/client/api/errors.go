package api

import "errors"

var (
	ErrUnavailable        = errors.New("server unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrQuotaExceeded      = errors.New("storage limit exceeded")
	ErrVerificationFailed = errors.New("upload verification failed")
)
