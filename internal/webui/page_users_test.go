package webui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sideout/internal/userauth"
)

func TestApplyRoleAction(t *testing.T) {
	blocked := userauth.User{IsBlocked: true}
	admin := userauth.User{IsAdmin: true}

	isAdmin, isBlocked, ok := applyRoleAction(blocked, "promote")
	assert.True(t, ok)
	assert.True(t, isAdmin)
	assert.True(t, isBlocked, "promote must not clear the block flag")

	isAdmin, isBlocked, ok = applyRoleAction(admin, "block")
	assert.True(t, ok)
	assert.True(t, isAdmin, "block must not clear the admin flag")
	assert.True(t, isBlocked)

	isAdmin, isBlocked, ok = applyRoleAction(userauth.User{IsAdmin: true, IsBlocked: true}, "unblock")
	assert.True(t, ok)
	assert.True(t, isAdmin)
	assert.False(t, isBlocked)

	_, _, ok = applyRoleAction(userauth.User{}, "demote")
	assert.False(t, ok)
}
