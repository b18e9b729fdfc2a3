package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsSuperAdmin(t *testing.T) {
	policy := NewPolicy([]string{"admin-1", "admin-2"})

	assert.True(t, policy.IsSuperAdmin("admin-1"))
	assert.True(t, policy.IsSuperAdmin("admin-2"))
	assert.False(t, policy.IsSuperAdmin("user-1"))
	assert.False(t, policy.IsSuperAdmin(""))
}

func TestPolicy_Empty(t *testing.T) {
	policy := NewPolicy(nil)

	assert.False(t, policy.IsSuperAdmin("anyone"))
}

func TestPolicy_Identify(t *testing.T) {
	policy := NewPolicy([]string{"admin-1"})

	admin := policy.Identify("admin-1")
	assert.Equal(t, "admin-1", admin.ID)
	assert.True(t, admin.IsSuperAdmin)

	user := policy.Identify("hotel-7")
	assert.Equal(t, "hotel-7", user.ID)
	assert.False(t, user.IsSuperAdmin)
}
