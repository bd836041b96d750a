package booking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"2999-01-01", NewDate(2999, time.January, 1)},
		{"2024-05-01T22:30:00.000Z", NewDate(2024, time.May, 1)},
		{"2024-05-01T00:30:00+02:00", NewDate(2024, time.May, 1)},
		{"01/05/2024", NewDate(2024, time.May, 1)},
		{"1714521600000", NewDate(2024, time.May, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDate("tomorrow")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2026, time.March, 9))
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-03-09"`, string(b))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`{"$date":"2026-03-09T00:00:00Z"}`), &d))
	assert.Equal(t, NewDate(2026, time.March, 9), d)

	require.NoError(t, json.Unmarshal([]byte(`true`), &d))
	assert.True(t, d.IsZero())
}

func TestDecodeReservationSynonyms(t *testing.T) {
	var raw RawReservation
	err := json.Unmarshal([]byte(`{
		"_id": {"$oid": "64b7f0c2a1d3e4f5a6b7c8d9"},
		"statut": "accepte",
		"tripId": "t9",
		"conducteur": {"_id": "d3", "firstName": "Lea", "lastName": "Roux", "telephone": "0600000000", "isVerified": true},
		"seats": "3",
		"message": "  bagages  ",
		"created_at": "2026-01-02T08:00:00+01:00"
	}`), &raw)
	require.NoError(t, err)

	assert.Equal(t, "64b7f0c2a1d3e4f5a6b7c8d9", raw.ID)
	assert.Equal(t, "accepte", raw.RawStatus)
	assert.Equal(t, "t9", raw.TripID)
	assert.Nil(t, raw.Trip)
	require.NotNil(t, raw.Driver)
	assert.Equal(t, User{ID: "d3", Name: "Lea Roux", Phone: "0600000000", Verified: true}, *raw.Driver)
	assert.Equal(t, 3, raw.SeatCount)
	assert.Equal(t, "bagages", raw.Message)
	require.NotNil(t, raw.CreatedAt)
	assert.Equal(t, time.Date(2026, time.January, 2, 7, 0, 0, 0, time.UTC), *raw.CreatedAt)
}

func TestDecodeTripAsBareString(t *testing.T) {
	var raw RawReservation
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r","trip":"t1"}`), &raw))
	assert.Nil(t, raw.Trip)
	assert.Equal(t, "t1", raw.TripID)
}

func TestDecodeKeepsBareOwnerReferences(t *testing.T) {
	var raw RawReservation
	require.NoError(t, json.Unmarshal([]byte(`{
		"_id": "r1",
		"passengerId": {"$oid": "64b7f0c2a1d3e4f5a6b7c8d9"},
		"driverId": "d4",
		"tripId": "t1"
	}`), &raw))
	require.NotNil(t, raw.Passenger)
	assert.Equal(t, "64b7f0c2a1d3e4f5a6b7c8d9", raw.Passenger.ID)
	require.NotNil(t, raw.Driver)
	assert.Equal(t, "d4", raw.Driver.ID)

	// a joined document wins over the bare reference
	raw = RawReservation{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"passenger": {"_id": "p1", "name": "Ana"},
		"passengerId": "p1",
		"trip": {"_id": "t1", "driver": {"_id": "d1", "name": "Paul"}},
		"driverId": "d1"
	}`), &raw))
	assert.Equal(t, "Ana", raw.Passenger.Name)
	assert.Nil(t, raw.Driver)
	assert.Equal(t, "Paul", raw.Trip.Driver.Name)
}

func TestDecodeReservationsEnvelope(t *testing.T) {
	list, malformed, err := DecodeReservations([]byte(`{"success":true,"reservations":[{"id":"1"},{"id":"2"}]}`))
	require.NoError(t, err)
	assert.Zero(t, malformed)
	assert.Len(t, list, 2)

	list, _, err = DecodeReservations([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, _, err = DecodeReservations([]byte(`<html>`))
	assert.ErrorIs(t, err, ErrUnreadablePayload)
}

func TestDecodeReservationUnwrapsData(t *testing.T) {
	raw, err := DecodeReservation([]byte(`{"data":{"id":"r1","status":"refuse"}}`))
	require.NoError(t, err)
	assert.Equal(t, "r1", raw.ID)
	assert.Equal(t, "refuse", raw.RawStatus)

	_, err = DecodeReservation([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrUnreadablePayload)
}
