package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carpool/internal/booking"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/session"
	"carpool/internal/utils"
	"carpool/pkg/cache"
	"carpool/pkg/events"
	"carpool/pkg/logger"
)

type ReservationService interface {
	ListMine(ctx context.Context, sess *session.Session, opts ListOptions) ([]booking.Record, error)
	ListForDriver(ctx context.Context, sess *session.Session, opts ListOptions) ([]booking.Record, error)
	ListForTrip(ctx context.Context, sess *session.Session, tripID string, opts ListOptions) ([]booking.Record, error)
	Get(ctx context.Context, sess *session.Session, id string) (*booking.Record, error)
	Cancel(ctx context.Context, sess *session.Session, id string) (*booking.Record, error)
	Respond(ctx context.Context, sess *session.Session, id string, decision Decision) (*booking.Record, error)
	SearchTrips(ctx context.Context, sess *session.Session, query booking.TripQuery) ([]booking.Trip, error)
	Summary(ctx context.Context, sess *session.Session) (*ReservationSummary, error)
}

// CacheService is the subset of pkg/cache the service needs. Misses are
// reported with cache.ErrCacheMiss.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) (int64, error)
}

type Notifier interface {
	NotifyReservationChanged(userIDs []string, reservationID, displayStatus string)
}

type Metrics interface {
	ObserveNormalized(displayStatus string, issues []string)
	ObserveAction(action, outcome string)
	ObserveCache(result string)
}

// Clock returns the current time in the location expiry is evaluated in.
type Clock func() time.Time

func ClockIn(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionRefuse Decision = "refuse"
)

type ListOptions struct {
	// ActiveOnly drops reservations whose trip has already departed.
	ActiveOnly bool
}

type ReservationSummary struct {
	Total    int                           `json:"total"`
	ByStatus map[booking.DisplayStatus]int `json:"byStatus"`
}

const (
	scopeMine   = "mine"
	scopeDriver = "driver"
	scopeTrip   = "trip"

	outcomeOK        = "ok"
	outcomeRejected  = "rejected"
	outcomeForbidden = "forbidden"
	outcomeError     = "error"
)

type reservationService struct {
	source    interfaces.ReservationSource
	trips     interfaces.TripSource
	cache     CacheService
	cacheTTL  time.Duration
	publisher events.Publisher
	notifier  Notifier
	metrics   Metrics
	now       Clock
	logger    *logger.Logger
}

type ReservationServiceConfig struct {
	Source    interfaces.ReservationSource
	Trips     interfaces.TripSource
	Cache     CacheService
	CacheTTL  time.Duration
	Publisher events.Publisher
	Notifier  Notifier
	Metrics   Metrics
	Clock     Clock
}

func NewReservationService(cfg ReservationServiceConfig, log *logger.Logger) ReservationService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.NoopPublisher{}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = utils.DefaultReservationsTTL
	}

	return &reservationService{
		source:    cfg.Source,
		trips:     cfg.Trips,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		publisher: cfg.Publisher,
		notifier:  cfg.Notifier,
		metrics:   cfg.Metrics,
		now:       cfg.Clock,
		logger:    log,
	}
}

func (s *reservationService) ListMine(ctx context.Context, sess *session.Session, opts ListOptions) ([]booking.Record, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}

	raw, err := s.cachedList(ctx, listKey(sess.UserID, scopeMine), func() ([]booking.RawReservation, error) {
		return s.source.ListByPassenger(ctx, sess, sess.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	return s.records(ctx, raw, opts), nil
}

func (s *reservationService) ListForDriver(ctx context.Context, sess *session.Session, opts ListOptions) ([]booking.Record, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}

	raw, err := s.cachedList(ctx, listKey(sess.UserID, scopeDriver), func() ([]booking.RawReservation, error) {
		return s.source.ListByDriver(ctx, sess, sess.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list driver reservations: %w", err)
	}

	return s.records(ctx, raw, opts), nil
}

func (s *reservationService) ListForTrip(ctx context.Context, sess *session.Session, tripID string, opts ListOptions) ([]booking.Record, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}

	raw, err := s.cachedList(ctx, listKey(sess.UserID, scopeTrip, tripID), func() ([]booking.RawReservation, error) {
		return s.source.ListByTrip(ctx, sess, tripID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trip reservations: %w", err)
	}

	// only the trip's driver sees its passenger list, departed or not
	records := s.normalize(ctx, raw)
	for _, record := range records {
		if driverID := record.DriverID(); driverID != "" && !sess.Owns(driverID) {
			return nil, ErrForbidden
		}
	}
	return s.filter(records, opts), nil
}

func (s *reservationService) Get(ctx context.Context, sess *session.Session, id string) (*booking.Record, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}

	record, err := s.fetch(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !canView(sess, record) {
		return nil, ErrForbidden
	}
	return record, nil
}

func (s *reservationService) Cancel(ctx context.Context, sess *session.Session, id string) (*booking.Record, error) {
	const action = "cancel"

	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}

	record, err := s.fetch(ctx, sess, id)
	if err != nil {
		s.observeAction(action, outcomeError)
		return nil, err
	}
	if !ownsWrite(sess, record.PassengerID()) {
		s.observeAction(action, outcomeForbidden)
		return nil, ErrForbidden
	}
	if !record.CanCancel {
		s.observeAction(action, outcomeRejected)
		return nil, ErrNotCancellable
	}

	if err := s.source.Cancel(ctx, sess, id); err != nil {
		s.observeAction(action, outcomeError)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to cancel reservation: %w", err)
	}

	updated := s.transition(ctx, record, booking.RawCancelled, events.TypeCancelled, sess)
	s.observeAction(action, outcomeOK)
	return updated, nil
}

func (s *reservationService) Respond(ctx context.Context, sess *session.Session, id string, decision Decision) (*booking.Record, error) {
	var (
		status    booking.RawStatus
		eventType string
	)
	switch decision {
	case DecisionAccept:
		status, eventType = booking.RawAccepted, events.TypeAccepted
	case DecisionRefuse:
		status, eventType = booking.RawRefused, events.TypeRefused
	default:
		return nil, ErrInvalidDecision
	}
	action := string(decision)

	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}

	record, err := s.fetch(ctx, sess, id)
	if err != nil {
		s.observeAction(action, outcomeError)
		return nil, err
	}
	if !ownsWrite(sess, record.DriverID()) {
		s.observeAction(action, outcomeForbidden)
		return nil, ErrForbidden
	}
	if !record.CanRespond {
		s.observeAction(action, outcomeRejected)
		return nil, ErrNotRespondable
	}

	if err := s.source.UpdateStatus(ctx, sess, id, status); err != nil {
		s.observeAction(action, outcomeError)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to update reservation status: %w", err)
	}

	updated := s.transition(ctx, record, status, eventType, sess)
	s.observeAction(action, outcomeOK)
	return updated, nil
}

func (s *reservationService) SearchTrips(ctx context.Context, sess *session.Session, query booking.TripQuery) ([]booking.Trip, error) {
	key := tripsKey(query)

	var trips []booking.Trip
	if !s.cacheGet(ctx, key, &trips) {
		found, err := s.trips.SearchTrips(ctx, sess, query)
		if err != nil {
			return nil, fmt.Errorf("failed to search trips: %w", err)
		}
		trips = found
		s.cacheSet(ctx, key, trips)
	}

	return booking.ActiveTrips(trips, s.now()), nil
}

func (s *reservationService) Summary(ctx context.Context, sess *session.Session) (*ReservationSummary, error) {
	records, err := s.ListMine(ctx, sess, ListOptions{})
	if err != nil {
		return nil, err
	}

	return &ReservationSummary{
		Total:    len(records),
		ByStatus: booking.Counts(records),
	}, nil
}

// fetch loads one reservation and reconciles it against the current time.
func (s *reservationService) fetch(ctx context.Context, sess *session.Session, id string) (*booking.Record, error) {
	raw, err := s.source.GetReservation(ctx, sess, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if raw == nil {
		return nil, ErrReservationNotFound
	}

	record := booking.Reconcile(*raw, s.now())
	s.observeRecord(ctx, record)
	return &record, nil
}

// transition applies a successful write locally and fans it out: cached lists
// are dropped, an event is published and both parties are notified.
func (s *reservationService) transition(ctx context.Context, record *booking.Record, status booking.RawStatus, eventType string, sess *session.Session) *booking.Record {
	updated := booking.Reconcile(booking.RawReservation{
		ID:        record.ID,
		RawStatus: string(status),
		TripID:    record.TripID,
		Trip:      record.Trip,
		Passenger: record.Passenger,
		Driver:    record.Driver,
		SeatCount: record.SeatCount,
		Message:   record.Message,
		CreatedAt: record.CreatedAt,
	}, s.now())

	s.invalidate(ctx, updated)

	event := events.ReservationEvent{
		Type:          eventType,
		ReservationID: updated.ID,
		TripID:        updated.TripID,
		PassengerID:   updated.PassengerID(),
		DriverID:      updated.DriverID(),
		RawStatus:     string(status),
		OccurredAt:    s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithReservationID(updated.ID).Warn("failed to publish reservation event")
	}

	if s.notifier != nil {
		s.notifier.NotifyReservationChanged(
			[]string{updated.PassengerID(), updated.DriverID(), sess.UserID},
			updated.ID,
			string(updated.DisplayStatus),
		)
	}

	s.logger.WithContext(ctx).LogReservationEvent(updated.ID, eventType, map[string]interface{}{
		"user_id":        sess.UserID,
		"raw_status":     updated.RawStatus,
		"display_status": updated.DisplayStatus,
	})

	return &updated
}

func (s *reservationService) records(ctx context.Context, raw []booking.RawReservation, opts ListOptions) []booking.Record {
	return s.filter(s.normalize(ctx, raw), opts)
}

func (s *reservationService) normalize(ctx context.Context, raw []booking.RawReservation) []booking.Record {
	records := booking.Normalize(raw, s.now())
	for _, record := range records {
		s.observeRecord(ctx, record)
	}
	return records
}

func (s *reservationService) filter(records []booking.Record, opts ListOptions) []booking.Record {
	if opts.ActiveOnly {
		return booking.FilterActive(records)
	}
	return records
}

func (s *reservationService) observeRecord(ctx context.Context, record booking.Record) {
	issues := make([]string, 0, len(record.Issues))
	for _, issue := range record.Issues {
		issues = append(issues, string(issue))
	}
	if s.metrics != nil {
		s.metrics.ObserveNormalized(string(record.DisplayStatus), issues)
	}
	s.logger.WithContext(ctx).LogDataIssues(record.ID, issues)
}

func (s *reservationService) observeAction(action, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveAction(action, outcome)
	}
}

func (s *reservationService) observeCache(result string) {
	if s.metrics != nil {
		s.metrics.ObserveCache(result)
	}
}

func (s *reservationService) cachedList(ctx context.Context, key string, load func() ([]booking.RawReservation, error)) ([]booking.RawReservation, error) {
	var raw []booking.RawReservation
	if s.cacheGet(ctx, key, &raw) {
		return raw, nil
	}

	raw, err := load()
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, raw)
	return raw, nil
}

// cacheGet reports a hit. Cache failures are logged and treated as a miss.
func (s *reservationService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}

	err := s.cache.Get(ctx, key, dest)
	switch {
	case err == nil:
		s.observeCache("hit")
		return true
	case errors.Is(err, cache.ErrCacheMiss):
		s.observeCache("miss")
	default:
		s.observeCache("error")
		s.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("cache read failed")
	}
	return false
}

func (s *reservationService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.observeCache("error")
		s.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (s *reservationService) invalidate(ctx context.Context, record booking.Record) {
	if s.cache == nil {
		return
	}

	keys := make([]string, 0, 2)
	if passengerID := record.PassengerID(); passengerID != "" {
		keys = append(keys, listKey(passengerID, scopeMine))
	}
	if driverID := record.DriverID(); driverID != "" {
		keys = append(keys, listKey(driverID, scopeDriver))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("cache invalidation failed")
	}

	// trip listings are cached per viewer
	if record.TripID != "" {
		pattern := listKey("*", scopeTrip, record.TripID)
		if _, err := s.cache.DeletePattern(ctx, pattern); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("pattern", pattern).Warn("cache invalidation failed")
		}
	}
}

// canView allows the passenger, the driver and admins. A record with neither
// reference is left to the source to authorize.
func canView(sess *session.Session, record *booking.Record) bool {
	passengerID, driverID := record.PassengerID(), record.DriverID()
	if passengerID == "" && driverID == "" {
		return true
	}
	return sess.IsAdmin() || sess.UserID == passengerID || sess.UserID == driverID
}

// ownsWrite reports whether sess may modify a reservation owned by ownerID.
// An unknown owner is writable by admins only.
func ownsWrite(sess *session.Session, ownerID string) bool {
	if sess.IsAdmin() {
		return true
	}
	return ownerID != "" && sess.Owns(ownerID)
}

func listKey(userID string, parts ...string) string {
	return utils.CacheReservationsPrefix + userID + ":" + strings.Join(parts, ":")
}

func tripsKey(query booking.TripQuery) string {
	return utils.CacheTripsPrefix + strings.Join([]string{
		strings.ToLower(strings.TrimSpace(query.DepartureCity)),
		strings.ToLower(strings.TrimSpace(query.ArrivalCity)),
		query.Date.String(),
	}, "|")
}
