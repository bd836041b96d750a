package booking

import (
	"slices"
	"strings"
	"time"
)

// Reconcile turns one raw reservation into its render-ready record. Missing
// references stay nil and are reported through Issues.
func Reconcile(raw RawReservation, now time.Time) Record {
	expired := TripExpired(raw.Trip, now)

	record := Record{
		ID:            raw.ID,
		RawStatus:     raw.RawStatus,
		DisplayStatus: Resolve(raw.RawStatus, expired),
		IsExpired:     expired,
		CanCancel:     CanCancel(raw.RawStatus, expired),
		CanRespond:    CanRespond(raw.RawStatus, expired),
		TripID:        raw.TripID,
		Trip:          raw.Trip,
		Passenger:     raw.Passenger,
		Driver:        raw.Driver,
		SeatCount:     raw.SeatCount,
		Message:       raw.Message,
		CreatedAt:     raw.CreatedAt,
	}

	if record.Trip != nil {
		if record.TripID == "" {
			record.TripID = record.Trip.ID
		}
		if record.Driver == nil {
			record.Driver = record.Trip.Driver
		}
	}

	if strings.TrimSpace(record.ID) == "" {
		record.Issues = append(record.Issues, IssueIDMissing)
	}
	if record.Trip == nil {
		record.Issues = append(record.Issues, IssueTripMissing)
	} else if record.Trip.DepartureDate.IsZero() {
		record.Issues = append(record.Issues, IssueDepartureDateUnknown)
	}
	if record.Driver == nil {
		record.Issues = append(record.Issues, IssueDriverMissing)
	}
	if CanonicalStatus(raw.RawStatus) == "" {
		record.Issues = append(record.Issues, IssueStatusUnknown)
	}

	return record
}

// Annotate reconciles every element, keeping input order.
func Annotate(list []RawReservation, now time.Time) []Record {
	records := make([]Record, 0, len(list))
	for _, raw := range list {
		records = append(records, Reconcile(raw, now))
	}
	return records
}

// Normalize annotates the list and orders it most recent first. Records with
// no creation time go last; ties keep their input order.
func Normalize(list []RawReservation, now time.Time) []Record {
	records := Annotate(list, now)
	slices.SortStableFunc(records, compareCreatedDesc)
	return records
}

func compareCreatedDesc(a, b Record) int {
	switch {
	case a.CreatedAt == nil && b.CreatedAt == nil:
		return 0
	case a.CreatedAt == nil:
		return 1
	case b.CreatedAt == nil:
		return -1
	}
	return b.CreatedAt.Compare(*a.CreatedAt)
}

// Counts tallies records per display status. Every status is present.
func Counts(records []Record) map[DisplayStatus]int {
	counts := make(map[DisplayStatus]int, len(DisplayStatuses))
	for _, status := range DisplayStatuses {
		counts[status] = 0
	}
	for _, record := range records {
		if record.DisplayStatus.Valid() {
			counts[record.DisplayStatus]++
		}
	}
	return counts
}
