package interfaces

import (
	"context"
	"errors"

	"carpool/internal/booking"
	"carpool/internal/session"
)

// ErrNotFound is returned by sources when the requested reservation does not exist.
var ErrNotFound = errors.New("not found")

// ReservationSource reads and mutates reservations on behalf of the caller.
// Payloads are returned raw; reconciliation happens in the service layer.
type ReservationSource interface {
	ListByPassenger(ctx context.Context, sess *session.Session, passengerID string) ([]booking.RawReservation, error)
	ListByDriver(ctx context.Context, sess *session.Session, driverID string) ([]booking.RawReservation, error)
	ListByTrip(ctx context.Context, sess *session.Session, tripID string) ([]booking.RawReservation, error)
	GetReservation(ctx context.Context, sess *session.Session, id string) (*booking.RawReservation, error)

	Cancel(ctx context.Context, sess *session.Session, id string) error
	UpdateStatus(ctx context.Context, sess *session.Session, id string, status booking.RawStatus) error
}

type TripSource interface {
	SearchTrips(ctx context.Context, sess *session.Session, query booking.TripQuery) ([]booking.Trip, error)
}
