package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnreadablePayload is returned when a payload holds no reservation list at all.
var ErrUnreadablePayload = errors.New("payload is not a reservation list")

// Keys under which list endpoints wrap their array.
var listEnvelopeKeys = []string{"data", "reservations", "items", "results"}

// DecodeReservations decodes a backend list payload element by element. An
// element that is not a JSON object decodes to an empty RawReservation so the
// rest of the batch survives. The returned count is the number of such elements.
func DecodeReservations(data []byte) ([]RawReservation, int, error) {
	elements, err := splitList(data)
	if err != nil {
		return nil, 0, err
	}

	list := make([]RawReservation, 0, len(elements))
	malformed := 0
	for _, element := range elements {
		var raw RawReservation
		if err := json.Unmarshal(element, &raw); err != nil {
			malformed++
			raw = RawReservation{}
		}
		list = append(list, raw)
	}
	return list, malformed, nil
}

// DecodeReservation decodes a single-record payload, unwrapping a "data" envelope.
func DecodeReservation(data []byte) (*RawReservation, error) {
	fields, err := objectFields(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePayload, err)
	}
	if inner := pick(fields, "data", "reservation"); inner != nil && isObject(inner) {
		data = inner
	}

	var raw RawReservation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePayload, err)
	}
	return &raw, nil
}

// DecodeTrips decodes a trip search payload; elements that are not objects are skipped.
func DecodeTrips(data []byte) ([]Trip, error) {
	elements, err := splitList(data)
	if err != nil {
		return nil, err
	}

	trips := make([]Trip, 0, len(elements))
	for _, element := range elements {
		if trip := decodeTrip(element); trip != nil {
			trips = append(trips, *trip)
		}
	}
	return trips, nil
}

func splitList(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err == nil {
		return elements, nil
	}

	fields, err := objectFields(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePayload, err)
	}
	inner := pick(fields, listEnvelopeKeys...)
	if inner == nil {
		return nil, nil
	}
	return splitList(inner)
}

func (r *RawReservation) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}

	out := RawReservation{
		ID:        decodeID(pick(fields, "id", "_id")),
		RawStatus: decodeString(pick(fields, "rawStatus", "status", "statut")),
		Passenger: decodeUser(pick(fields, "passenger", "passager")),
		Driver:    decodeUser(pick(fields, "driver", "conducteur")),
		SeatCount: decodeInt(pick(fields, "seatCount", "seats", "nombrePlaces")),
		Message:   decodeString(pick(fields, "message")),
		CreatedAt: decodeTime(pick(fields, "createdAt", "created_at")),
	}

	if trip := pick(fields, "trip", "trajet"); trip != nil {
		if isObject(trip) {
			out.Trip = decodeTrip(trip)
		} else {
			out.TripID = decodeID(trip)
		}
	}

	// tripId is sometimes populated with the whole trip document
	if ref := pick(fields, "tripId", "trip_id", "trajetId"); ref != nil {
		if isObject(ref) {
			if out.Trip == nil {
				out.Trip = decodeTrip(ref)
			}
		} else if id := decodeID(ref); id != "" {
			out.TripID = id
		}
	}

	// bare references survive a join that found no user document
	if out.Passenger == nil {
		out.Passenger = decodeUser(pick(fields, "passengerId", "passenger_id", "passagerId"))
	}
	if out.Driver == nil && (out.Trip == nil || out.Trip.Driver == nil) {
		out.Driver = decodeUser(pick(fields, "driverId", "driver_id", "conducteurId"))
	}

	*r = out
	return nil
}

func (t *Trip) UnmarshalJSON(data []byte) error {
	trip := decodeTrip(data)
	if trip == nil {
		return ErrUnreadablePayload
	}
	*t = *trip
	return nil
}

func (u *User) UnmarshalJSON(data []byte) error {
	user := decodeUser(data)
	if user == nil {
		*u = User{}
		return nil
	}
	*u = *user
	return nil
}

func decodeTrip(data json.RawMessage) *Trip {
	fields, err := objectFields(data)
	if err != nil {
		return nil
	}

	return &Trip{
		ID:             decodeID(pick(fields, "id", "_id")),
		DepartureCity:  decodeString(pick(fields, "departureCity", "villeDepart", "departure_city")),
		ArrivalCity:    decodeString(pick(fields, "arrivalCity", "villeArrivee", "arrival_city")),
		DepartureDate:  decodeDate(pick(fields, "departureDate", "dateDepart", "departure_date", "date")),
		DepartureTime:  decodeString(pick(fields, "departureTime", "heureDepart", "departure_time", "heure")),
		PricePerSeat:   decodeFloat(pick(fields, "pricePerSeat", "prixParPlace", "prix", "price")),
		AvailableSeats: decodeInt(pick(fields, "availableSeats", "placesDisponibles", "available_seats")),
		Driver:         decodeUser(pick(fields, "driver", "conducteur")),
	}
}

func decodeUser(data json.RawMessage) *User {
	if data == nil {
		return nil
	}
	if !isObject(data) {
		if id := decodeID(data); id != "" {
			return &User{ID: id}
		}
		return nil
	}

	fields, err := objectFields(data)
	if err != nil {
		return nil
	}

	name := decodeString(pick(fields, "name", "nom_complet", "fullName"))
	if name == "" {
		first := decodeString(pick(fields, "firstName", "first_name", "prenom"))
		last := decodeString(pick(fields, "lastName", "last_name", "nom"))
		name = strings.TrimSpace(first + " " + last)
	}

	return &User{
		ID:       decodeID(pick(fields, "id", "_id")),
		Name:     name,
		Phone:    decodeString(pick(fields, "phone", "telephone")),
		Verified: decodeBool(pick(fields, "verified", "isVerified", "verifie")),
	}
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("not an object")
	}
	return fields, nil
}

// pick returns the first key present with a non-null value.
func pick(fields map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, key := range keys {
		value, ok := fields[key]
		if !ok {
			continue
		}
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}
		return trimmed
	}
	return nil
}

// isObject reports whether data is a JSON document. An extended JSON
// {"$oid": "..."} wrapper is a reference, not a document.
func isObject(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	var oid struct {
		OID *string `json:"$oid"`
	}
	if err := json.Unmarshal(data, &oid); err == nil && oid.OID != nil {
		return false
	}
	return true
}

func decodeString(data json.RawMessage) string {
	if data == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// decodeID accepts strings, numbers and {"$oid": "..."}.
func decodeID(data json.RawMessage) string {
	if data == nil {
		return ""
	}
	if s := decodeString(data); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String()
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(data, &oid); err == nil {
		return oid.OID
	}
	return ""
}

func decodeFloat(data json.RawMessage) float64 {
	if data == nil {
		return 0
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return f
	}
	if s := decodeString(data); s != "" {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
			return f
		}
	}
	return 0
}

func decodeInt(data json.RawMessage) int {
	return int(decodeFloat(data))
}

func decodeBool(data json.RawMessage) bool {
	if data == nil {
		return false
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return b
	}
	if s := decodeString(data); s != "" {
		b, _ := strconv.ParseBool(s)
		return b
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

func decodeTime(data json.RawMessage) *time.Time {
	if data == nil {
		return nil
	}

	if s := decodeString(data); s != "" {
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		t := time.UnixMilli(int64(ms)).UTC()
		return &t
	}

	var wrapped struct {
		Date json.RawMessage `json:"$date"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Date != nil {
		return decodeTime(wrapped.Date)
	}
	return nil
}
