package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymous(t *testing.T) {
	s := Anonymous()
	assert.False(t, s.Authenticated())
	assert.False(t, s.IsAdmin())
	assert.False(t, s.Owns(""))

	var missing *Session
	assert.False(t, missing.Authenticated())
}

func TestOwns(t *testing.T) {
	passenger := New("u1", RolePassenger, "Ana", "tok")
	assert.True(t, passenger.Owns("u1"))
	assert.False(t, passenger.Owns("u2"))

	admin := New("a1", RoleAdmin, "", "tok")
	assert.True(t, admin.Owns("u2"))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleDriver, ParseRole("driver"))
	assert.Equal(t, RoleDriver, ParseRole("conducteur"))
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RolePassenger, ParseRole("rider"))
	assert.Equal(t, RolePassenger, ParseRole(""))
	assert.Equal(t, RolePassenger, New("u", "", "", "").Role)
}
