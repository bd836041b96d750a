package booking

import (
	"time"
)

// IsExpired reports whether the departure day is strictly before the calendar
// day of now, evaluated in now's location. An unknown departure is never expired.
func IsExpired(departure Date, now time.Time) bool {
	if departure.IsZero() {
		return false
	}
	return departure.Before(DateOf(now))
}

// TripExpired is IsExpired for a possibly missing trip.
func TripExpired(trip *Trip, now time.Time) bool {
	if trip == nil {
		return false
	}
	return IsExpired(trip.DepartureDate, now)
}

// FilterActive drops expired records and keeps the relative order of the rest.
func FilterActive(records []Record) []Record {
	active := make([]Record, 0, len(records))
	for _, record := range records {
		if !record.IsExpired {
			active = append(active, record)
		}
	}
	return active
}

// ActiveTrips drops trips whose departure day has passed.
func ActiveTrips(trips []Trip, now time.Time) []Trip {
	active := make([]Trip, 0, len(trips))
	for _, trip := range trips {
		if !IsExpired(trip.DepartureDate, now) {
			active = append(active, trip)
		}
	}
	return active
}
