// Package api reads reservations from the carpool backend's REST API,
// forwarding the caller's bearer token. Each concern has exactly one endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carpool/internal/booking"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/session"
	"carpool/pkg/logger"

	"golang.org/x/oauth2"
)

const maxBodyBytes = 8 << 20

type Observer interface {
	ObserveUpstream(operation string, d time.Duration)
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	log        *logger.Logger
	metrics    Observer
}

var (
	_ interfaces.ReservationSource = (*Client)(nil)
	_ interfaces.TripSource        = (*Client)(nil)
)

func NewClient(cfg Config, httpClient *http.Client, log *logger.Logger, metrics Observer) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid upstream base url %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		log:        log,
		metrics:    metrics,
	}, nil
}

func (c *Client) ListByPassenger(ctx context.Context, sess *session.Session, _ string) ([]booking.RawReservation, error) {
	return c.list(ctx, sess, "list_mine", "/reservations/me")
}

func (c *Client) ListByDriver(ctx context.Context, sess *session.Session, _ string) ([]booking.RawReservation, error) {
	return c.list(ctx, sess, "list_driver", "/reservations/driver")
}

func (c *Client) ListByTrip(ctx context.Context, sess *session.Session, tripID string) ([]booking.RawReservation, error) {
	return c.list(ctx, sess, "list_trip", "/trips/"+url.PathEscape(tripID)+"/reservations")
}

func (c *Client) GetReservation(ctx context.Context, sess *session.Session, id string) (*booking.RawReservation, error) {
	body, err := c.do(ctx, sess, "get", http.MethodGet, "/reservations/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}

	raw, err := booking.DecodeReservation(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reservation %s: %w", id, err)
	}
	return raw, nil
}

func (c *Client) Cancel(ctx context.Context, sess *session.Session, id string) error {
	_, err := c.do(ctx, sess, "cancel", http.MethodDelete, "/reservations/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) UpdateStatus(ctx context.Context, sess *session.Session, id string, status booking.RawStatus) error {
	payload := map[string]string{"status": string(status)}
	_, err := c.do(ctx, sess, "update_status", http.MethodPatch, "/reservations/"+url.PathEscape(id)+"/status", nil, payload)
	return err
}

func (c *Client) SearchTrips(ctx context.Context, sess *session.Session, query booking.TripQuery) ([]booking.Trip, error) {
	params := url.Values{}
	if query.DepartureCity != "" {
		params.Set("departureCity", query.DepartureCity)
	}
	if query.ArrivalCity != "" {
		params.Set("arrivalCity", query.ArrivalCity)
	}
	if !query.Date.IsZero() {
		params.Set("date", query.Date.String())
	}

	body, err := c.do(ctx, sess, "search_trips", http.MethodGet, "/trips", params, nil)
	if err != nil {
		return nil, err
	}

	trips, err := booking.DecodeTrips(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}
	return trips, nil
}

func (c *Client) list(ctx context.Context, sess *session.Session, operation, path string) ([]booking.RawReservation, error) {
	body, err := c.do(ctx, sess, operation, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	list, malformed, err := booking.DecodeReservations(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", operation, err)
	}
	if malformed > 0 {
		c.log.WithContext(ctx).WithFields(map[string]interface{}{
			"operation": operation,
			"malformed": malformed,
			"total":     len(list),
		}).Warn("upstream returned malformed reservations")
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, sess *session.Session, operation, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if requestID := logger.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := c.clientFor(ctx, sess).Do(req)
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.ObserveUpstream(operation, elapsed)
	}
	if err != nil {
		c.log.WithContext(ctx).LogUpstreamCall(operation, 0, elapsed, err)
		return nil, fmt.Errorf("failed to call %s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.log.WithContext(ctx).LogUpstreamCall(operation, resp.StatusCode, elapsed, err)
		return nil, fmt.Errorf("failed to read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Operation: operation, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		c.log.WithContext(ctx).LogUpstreamCall(operation, resp.StatusCode, elapsed, apiErr)
		return nil, apiErr
	}

	c.log.WithContext(ctx).LogUpstreamCall(operation, resp.StatusCode, elapsed, nil)
	return body, nil
}

// clientFor attaches the caller's bearer token to outgoing requests.
func (c *Client) clientFor(ctx context.Context, sess *session.Session) *http.Client {
	if sess == nil || sess.Token == "" {
		return c.httpClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: sess.Token,
		TokenType:   "Bearer",
	}))
}
