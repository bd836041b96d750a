package utils

import "time"

// Application Constants
const (
	AppName    = "carpool-bff"
	AppVersion = "1.0.0"

	// Authentication
	JWTAccessTokenTTL = 24 * time.Hour
	BearerPrefix      = "Bearer "

	// Reservations
	DefaultReservationsTTL = 30 * time.Second
	MaxRequestBodyBytes    = 1 << 20
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken          = "invalid token"
	ErrTokenExpired          = "token expired"
	ErrInternalServer        = "internal server error"
	ErrUnauthorized          = "unauthorized"
	ErrForbidden             = "forbidden"
	ErrValidationFailed      = "validation failed"
	ErrReservationNotCancel  = "reservation can no longer be cancelled"
	ErrReservationNotRespond = "reservation is no longer awaiting a decision"
	ErrUpstreamUnavailable   = "reservation backend unavailable"
)

// Error Codes
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeBadRequest     = "BAD_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeUpstream       = "UPSTREAM_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
	CodeNotCancellable = "NOT_CANCELLABLE"
	CodeNotRespondable = "NOT_RESPONDABLE"
)

// Cache Keys
const (
	CacheReservationsPrefix = "reservations:"
	CacheTripsPrefix        = "trips:"
)

// Context Keys
const (
	ContextSessionKey   = "session"
	ContextUserIDKey    = "user_id"
	ContextUserRoleKey  = "user_role"
	ContextRequestIDKey = "request_id"
)

// Headers
const (
	HeaderRequestID   = "X-Request-ID"
	HeaderDeprecation = "Deprecation"
	HeaderLink        = "Link"
)
