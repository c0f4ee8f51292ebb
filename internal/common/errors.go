// Package common defines shared constants and sentinel errors used across
// client and server layers of SkyDrive. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Tree-shape violations: an operation would create a cycle or point an
	// entity at itself.
	ErrInvalidOperation = errors.New("invalid operation")

	// Quota errors.
	ErrQuotaExceeded = errors.New("storage limit exceeded")

	// Upload lifecycle errors.
	ErrUploadVerificationFailed = errors.New("upload verification failed")

	// Object-store call failed; recoverable by retry.
	ErrTransientStore = errors.New("object store failure")

	// Validation errors.
	ErrValidation    = errors.New("validation error")
	ErrAlreadyExists = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
