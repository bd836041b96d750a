package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		raw  string
		want DisplayStatus
	}{
		{"en_attente", StatusPending},
		{"confirmee", StatusAccepted},
		{"accepte", StatusAccepted},
		{"refuse", StatusRefused},
		{"annulee", StatusCancelled},
		{"", StatusPending},
		{"unknown_value", StatusPending},
		{"  Confirmée ", StatusAccepted},
		{"Annulée", StatusCancelled},
		{"en attente", StatusPending},
		{"canceled", StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.raw))
		})
	}
}

func TestCanonicalStatusUnknown(t *testing.T) {
	assert.Equal(t, RawStatus(""), CanonicalStatus("unknown_value"))
	assert.Equal(t, RawStatus(""), CanonicalStatus("   "))
	assert.Equal(t, RawConfirmed, CanonicalStatus("CONFIRMÉE"))
}

func TestResolveExpiryPrecedence(t *testing.T) {
	assert.Equal(t, StatusExpired, Resolve("en_attente", true))
	assert.Equal(t, StatusExpired, Resolve("confirmee", true))
	assert.Equal(t, StatusExpired, Resolve("something_else", true))
	assert.Equal(t, StatusRefused, Resolve("refuse", true))
	assert.Equal(t, StatusCancelled, Resolve("annulee", true))
	assert.Equal(t, StatusAccepted, Resolve("accepte", false))
}

func TestDisplayStatusValid(t *testing.T) {
	for _, status := range DisplayStatuses {
		assert.True(t, status.Valid(), status)
	}
	assert.False(t, DisplayStatus("archived").Valid())
	assert.False(t, DisplayStatus("").Valid())
}
