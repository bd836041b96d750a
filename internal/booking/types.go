package booking

import (
	"time"
)

// RawReservation is a reservation as the backend returns it, before reconciliation.
type RawReservation struct {
	ID        string     `json:"id"`
	RawStatus string     `json:"rawStatus"`
	TripID    string     `json:"tripId,omitempty"`
	Trip      *Trip      `json:"trip"`
	Passenger *User      `json:"passenger"`
	Driver    *User      `json:"driver"`
	SeatCount int        `json:"seatCount"`
	Message   string     `json:"message,omitempty"`
	CreatedAt *time.Time `json:"createdAt"`
}

type Trip struct {
	ID             string  `json:"id"`
	DepartureCity  string  `json:"departureCity"`
	ArrivalCity    string  `json:"arrivalCity"`
	DepartureDate  Date    `json:"departureDate"`
	DepartureTime  string  `json:"departureTime,omitempty"`
	PricePerSeat   float64 `json:"pricePerSeat"`
	AvailableSeats int     `json:"availableSeats"`
	Driver         *User   `json:"driver"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Verified bool   `json:"verified"`
}

type Issue string

const (
	IssueIDMissing            Issue = "id_missing"
	IssueTripMissing          Issue = "trip_missing"
	IssueDepartureDateUnknown Issue = "departure_date_unknown"
	IssueDriverMissing        Issue = "driver_missing"
	IssueStatusUnknown        Issue = "status_unknown"
)

// Record is the normalized, render-ready view of a reservation.
type Record struct {
	ID            string        `json:"id"`
	RawStatus     string        `json:"rawStatus"`
	DisplayStatus DisplayStatus `json:"displayStatus"`
	IsExpired     bool          `json:"isExpired"`
	CanCancel     bool          `json:"canCancel"`
	CanRespond    bool          `json:"canRespond"`
	TripID        string        `json:"tripId,omitempty"`
	Trip          *Trip         `json:"trip"`
	Passenger     *User         `json:"passenger"`
	Driver        *User         `json:"driver"`
	SeatCount     int           `json:"seatCount"`
	Message       string        `json:"message,omitempty"`
	CreatedAt     *time.Time    `json:"createdAt"`
	Issues        []Issue       `json:"issues,omitempty"`
}

// HasIssue reports whether the record was flagged with the given issue.
func (r Record) HasIssue(issue Issue) bool {
	for _, i := range r.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

func (r Record) PassengerID() string {
	if r.Passenger == nil {
		return ""
	}
	return r.Passenger.ID
}

func (r Record) DriverID() string {
	if r.Driver == nil {
		return ""
	}
	return r.Driver.ID
}

// TripQuery filters a trip search.
type TripQuery struct {
	DepartureCity string
	ArrivalCity   string
	Date          Date
}
