package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRoles(t *testing.T) {
	patient := &User{RoleID: RoleIDPatient}
	gp := &User{RoleID: RoleIDGP}

	assert.True(t, patient.IsPatient())
	assert.False(t, patient.IsGP())
	assert.Equal(t, RolePatient, patient.RoleName())
	assert.Equal(t, RoleGP, gp.RoleName())
	assert.Equal(t, "", (&User{RoleID: 99}).RoleName())
}

func TestEmergencyContactFor(t *testing.T) {
	user := &User{EmergencyContacts: []EmergencyContact{
		{Username: "sister", CanViewRecords: true},
	}}

	c, ok := user.EmergencyContactFor("sister")
	assert.True(t, ok)
	assert.True(t, c.CanViewRecords)

	_, ok = user.EmergencyContactFor("brother")
	assert.False(t, ok)
}

func TestHasPublicKey(t *testing.T) {
	empty := ""
	key := "-----BEGIN PUBLIC KEY-----"

	assert.False(t, (&User{}).HasPublicKey())
	assert.False(t, (&User{PublicKey: &empty}).HasPublicKey())
	assert.True(t, (&User{PublicKey: &key}).HasPublicKey())
}
