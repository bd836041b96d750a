package services

import "errors"

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNotCancellable      = errors.New("reservation can no longer be cancelled")
	ErrNotRespondable      = errors.New("reservation is no longer awaiting a decision")
	ErrForbidden           = errors.New("reservation belongs to another user")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrInvalidDecision     = errors.New("decision must be accept or refuse")
)
