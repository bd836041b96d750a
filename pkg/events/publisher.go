package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carpool/pkg/logger"

	"github.com/nats-io/nats.go"
)

const (
	TypeCancelled = "cancelled"
	TypeAccepted  = "accepted"
	TypeRefused   = "refused"
)

type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservationId"`
	TripID        string    `json:"tripId,omitempty"`
	PassengerID   string    `json:"passengerId,omitempty"`
	DriverID      string    `json:"driverId,omitempty"`
	RawStatus     string    `json:"rawStatus"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher emits reservation events for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
	Close()
}

type PublisherMetrics interface {
	ObservePublishError()
}

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

type NATSPublisher struct {
	nc      conn
	prefix  string
	log     *logger.Logger
	metrics PublisherMetrics
}

type Config struct {
	URL           string
	SubjectPrefix string
	ClientName    string
}

func NewNATSPublisher(cfg Config, log *logger.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrlRedacted()).Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return newNATSPublisher(nc, cfg.SubjectPrefix, log, m), nil
}

func newNATSPublisher(nc conn, prefix string, log *logger.Logger, m PublisherMetrics) *NATSPublisher {
	if prefix == "" {
		prefix = "reservations"
	}
	return &NATSPublisher{nc: nc, prefix: prefix, log: log, metrics: m}
}

func (p *NATSPublisher) Publish(ctx context.Context, event ReservationEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := Subject(p.prefix, event.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		if p.metrics != nil {
			p.metrics.ObservePublishError()
		}
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.log.WithContext(ctx).WithFields(map[string]interface{}{
		"subject":        subject,
		"reservation_id": event.ReservationID,
	}).Debug("event published")
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// Subject builds "<prefix>.<type>" with both parts made safe as NATS tokens.
func Subject(prefix, eventType string) string {
	return fmt.Sprintf("%s.%s", subjectToken(prefix), subjectToken(eventType))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain spaces, '>', '*' or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

// NoopPublisher drops every event. Used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ReservationEvent) error { return nil }

func (NoopPublisher) Close() {}
