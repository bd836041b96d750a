package booking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

func decodeList(t *testing.T, payload string) []RawReservation {
	t.Helper()
	list, _, err := DecodeReservations([]byte(payload))
	require.NoError(t, err)
	return list
}

func TestReconcileScenarios(t *testing.T) {
	tests := []struct {
		name          string
		payload       string
		displayStatus DisplayStatus
		expired       bool
		canCancel     bool
	}{
		{
			name:          "confirmed future trip",
			payload:       `{"id":"r1","status":"confirmee","trip":{"departureDate":"2999-01-01"}}`,
			displayStatus: StatusAccepted,
			expired:       false,
			canCancel:     true,
		},
		{
			name:          "pending past trip",
			payload:       `{"id":"r2","status":"en_attente","trip":{"departureDate":"2000-01-01"}}`,
			displayStatus: StatusExpired,
			expired:       true,
			canCancel:     false,
		},
		{
			name:          "cancelled future trip",
			payload:       `{"id":"r3","status":"annulee","trip":{"departureDate":"2999-01-01"}}`,
			displayStatus: StatusCancelled,
			expired:       false,
			canCancel:     false,
		},
		{
			name:          "unknown status falls back to pending",
			payload:       `{"id":"r4","status":"unknown_value","trip":{"departureDate":"2999-01-01"}}`,
			displayStatus: StatusPending,
			expired:       false,
			canCancel:     false,
		},
		{
			name:          "refused past trip keeps refused",
			payload:       `{"id":"r5","statut":"refuse","trajet":{"dateDepart":"2000-01-01"}}`,
			displayStatus: StatusRefused,
			expired:       true,
			canCancel:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw RawReservation
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &raw))

			record := Reconcile(raw, testNow)
			assert.Equal(t, tt.displayStatus, record.DisplayStatus)
			assert.Equal(t, tt.expired, record.IsExpired)
			assert.Equal(t, tt.canCancel, record.CanCancel)
		})
	}
}

func TestNormalizeToleratesMissingTrip(t *testing.T) {
	list := decodeList(t, `[
		{"id":"a","status":"accepte","trip":{"id":"t1","departureDate":"2999-01-01","driver":{"id":"d1"}}},
		{"id":"b","status":"en_attente","trip":null},
		{"id":"c","status":"refuse","trajet":{"id":"t2","dateDepart":"2000-01-01","conducteur":{"id":"d2"}}}
	]`)

	records := Normalize(list, testNow)
	require.Len(t, records, 3)

	byID := map[string]Record{}
	for _, r := range records {
		byID[r.ID] = r
	}

	missing := byID["b"]
	assert.Nil(t, missing.Trip)
	assert.True(t, missing.HasIssue(IssueTripMissing))
	assert.True(t, missing.HasIssue(IssueDriverMissing))
	assert.False(t, missing.IsExpired)
	assert.Equal(t, StatusPending, missing.DisplayStatus)

	assert.Equal(t, "d1", byID["a"].DriverID())
	assert.Equal(t, "t1", byID["a"].TripID)
	assert.Empty(t, byID["a"].Issues)
	assert.Equal(t, "d2", byID["c"].DriverID())
}

func TestNormalizeNonObjectElement(t *testing.T) {
	list, malformed, err := DecodeReservations([]byte(`[{"id":"a","status":"accepte"}, 42, "oops"]`))
	require.NoError(t, err)
	assert.Equal(t, 2, malformed)

	records := Normalize(list, testNow)
	require.Len(t, records, 3)
	assert.True(t, records[2].HasIssue(IssueIDMissing))
	assert.True(t, records[2].HasIssue(IssueTripMissing))
	assert.False(t, records[2].CanCancel)
}

func TestNormalizeOrdersByCreatedAtDesc(t *testing.T) {
	list := decodeList(t, `[
		{"id":"old","status":"accepte","createdAt":"2026-01-01T10:00:00Z"},
		{"id":"none","status":"accepte"},
		{"id":"new","status":"accepte","createdAt":"2026-03-01T10:00:00Z"},
		{"id":"mid","status":"accepte","created_at":"2026-02-01 10:00:00"}
	]`)

	records := Normalize(list, testNow)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old", "none"}, ids)
}

func TestAnnotatePreservesOrder(t *testing.T) {
	list := decodeList(t, `[
		{"id":"x","createdAt":"2026-01-01T10:00:00Z"},
		{"id":"y","createdAt":"2026-03-01T10:00:00Z"}
	]`)

	records := Annotate(list, testNow)
	assert.Equal(t, "x", records[0].ID)
	assert.Equal(t, "y", records[1].ID)
}

func TestEmptyInputs(t *testing.T) {
	assert.Empty(t, Annotate(nil, testNow))
	assert.Empty(t, Annotate([]RawReservation{}, testNow))
	assert.Empty(t, FilterActive(nil))
	assert.Empty(t, FilterActive([]Record{}))
	assert.Empty(t, Normalize(nil, testNow))
	assert.NotNil(t, FilterActive(nil))
}

func TestFilterActiveIsOrderedSubset(t *testing.T) {
	list := decodeList(t, `[
		{"id":"1","status":"accepte","trip":{"departureDate":"2999-01-01"}},
		{"id":"2","status":"accepte","trip":{"departureDate":"2000-01-01"}},
		{"id":"3","status":"annulee","trip":{"departureDate":"2999-06-01"}},
		{"id":"4","status":"en_attente","trip":{"departureDate":"2001-01-01"}},
		{"id":"5","status":"en_attente"}
	]`)

	annotated := Annotate(list, testNow)
	active := FilterActive(annotated)

	ids := make([]string, 0, len(active))
	for _, r := range active {
		ids = append(ids, r.ID)
		assert.Contains(t, annotated, r)
		assert.False(t, r.IsExpired)
	}
	assert.Equal(t, []string{"1", "3", "5"}, ids)
}

func TestNormalizeIsIdempotentThroughJSON(t *testing.T) {
	list := decodeList(t, `[
		{"_id":"a","statut":"confirmée","trajetId":{"_id":"t1","villeDepart":"Lyon","villeArrivee":"Paris","dateDepart":"2999-01-01","prix":"12,5","conducteur":{"_id":"d1","prenom":"Ana","nom":"Diaz"}},"passager":"p1","nombrePlaces":2,"createdAt":"2026-01-01T10:00:00Z"},
		{"id":7,"status":"en_attente","trip":null,"createdAt":1767261600000},
		{"id":"c","status":"weird","trip":{"id":"t3","departureDate":"not a date"},"message":"hi"},
		"broken"
	]`)

	first := Normalize(list, testNow)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	again := decodeList(t, string(encoded))
	second := Normalize(again, testNow)

	assert.Equal(t, first, second)
}

func TestCounts(t *testing.T) {
	list := decodeList(t, `[
		{"id":"1","status":"accepte","trip":{"departureDate":"2999-01-01"}},
		{"id":"2","status":"accepte","trip":{"departureDate":"2000-01-01"}},
		{"id":"3","status":"annulee"}
	]`)

	counts := Counts(Annotate(list, testNow))
	assert.Equal(t, 1, counts[StatusAccepted])
	assert.Equal(t, 1, counts[StatusExpired])
	assert.Equal(t, 1, counts[StatusCancelled])
	assert.Equal(t, 0, counts[StatusRefused])
	assert.Len(t, counts, len(DisplayStatuses))

	// records built outside Reconcile with an unknown status are not counted
	counts = Counts([]Record{{DisplayStatus: "archived"}, {}})
	assert.Len(t, counts, len(DisplayStatuses))
	assert.NotContains(t, counts, DisplayStatus("archived"))
}

func TestActiveTrips(t *testing.T) {
	trips, err := DecodeTrips([]byte(`{"data":[
		{"id":"t1","departureDate":"2999-01-01"},
		{"id":"t2","departureDate":"2000-01-01"},
		"garbage",
		{"id":"t3"}
	]}`))
	require.NoError(t, err)
	require.Len(t, trips, 3)

	active := ActiveTrips(trips, testNow)
	require.Len(t, active, 2)
	assert.Equal(t, "t1", active[0].ID)
	assert.Equal(t, "t3", active[1].ID)
}
