package userauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sideout/internal/util/slogx"
)

type fakeDB struct {
	users map[string]User
}

func newFakeDB() *fakeDB {
	return &fakeDB{users: make(map[string]User)}
}

func (d *fakeDB) CreateUser(_ context.Context, user User) error {
	for _, u := range d.users {
		if u.Username == user.Username {
			return ErrUserAlreadyExists
		}
	}
	d.users[user.ID] = user
	return nil
}

func (d *fakeDB) GetUser(_ context.Context, userID string) (User, error) {
	u, ok := d.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (d *fakeDB) GetUserByUsername(_ context.Context, username string) (User, error) {
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (d *fakeDB) ListUsers(_ context.Context) ([]User, error) {
	var res []User
	for _, u := range d.users {
		res = append(res, u)
	}
	return res, nil
}

func (d *fakeDB) UpdateUser(_ context.Context, user User) error {
	if _, ok := d.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	d.users[user.ID] = user
	return nil
}

func (d *fakeDB) CountUsers(_ context.Context) (int64, error) {
	return int64(len(d.users)), nil
}

// fastPasswords keeps argon2 cheap in tests.
var fastPasswords = ManagerOptions{
	Password: &PasswordOptions{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
}

func newTestManager(t *testing.T) (*Manager, *fakeDB) {
	t.Helper()
	db := newFakeDB()
	return NewManager(slogx.DiscardLogger(), db, fastPasswords), db
}

func TestRegisterAndVerify(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first, err := m.Register(ctx, "alice", "correct horse", "Alice")
	require.NoError(t, err)
	assert.True(t, first.IsAdmin, "first user must become admin")

	second, err := m.Register(ctx, "bob", "battery staple", "")
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)
	assert.Nil(t, second.FullName)

	_, err = m.Register(ctx, "alice", "another pass", "")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	got, err := m.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, m.VerifyPassword(&got, []byte("battery staple")))
	assert.False(t, m.VerifyPassword(&got, []byte("batterystaple")))
}

func TestRegisterValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "ab", "long enough pass", "")
	assert.Error(t, err)
	_, err = m.Register(ctx, "has spaces", "long enough pass", "")
	assert.Error(t, err)
	_, err = m.Register(ctx, "goodname", "short", "")
	assert.Error(t, err)
}

func TestChangePasswordBumpsEpoch(t *testing.T) {
	m, db := newTestManager(t)
	ctx := context.Background()

	u, err := m.Register(ctx, "carol", "initial pass", "")
	require.NoError(t, err)
	oldEpoch := u.Epoch

	require.NoError(t, m.ChangePassword(ctx, &u, "replacement pass"))
	assert.Equal(t, oldEpoch+1, u.Epoch)

	stored := db.users[u.ID]
	assert.Equal(t, u.Epoch, stored.Epoch)
	assert.True(t, m.VerifyPassword(&stored, []byte("replacement pass")))
	assert.False(t, m.VerifyPassword(&stored, []byte("initial pass")))
}

func TestChangeRoleGuards(t *testing.T) {
	m, db := newTestManager(t)
	ctx := context.Background()

	admin, err := m.Register(ctx, "root", "admin password", "")
	require.NoError(t, err)
	user, err := m.Register(ctx, "plain", "user password", "")
	require.NoError(t, err)
	other, err := m.Register(ctx, "other", "user password", "")
	require.NoError(t, err)

	// Non-admins cannot change roles at all.
	err = m.ChangeRole(ctx, &user, other.ID, false, true)
	assert.ErrorIs(t, err, ErrRoleChangeDenied)

	// Admins cannot demote or block themselves.
	err = m.ChangeRole(ctx, &admin, admin.ID, false, false)
	assert.ErrorIs(t, err, ErrRoleChangeDenied)
	err = m.ChangeRole(ctx, &admin, admin.ID, true, true)
	assert.ErrorIs(t, err, ErrRoleChangeDenied)

	// Blocking bumps the victim's epoch so sessions die.
	oldEpoch := db.users[user.ID].Epoch
	require.NoError(t, m.ChangeRole(ctx, &admin, user.ID, false, true))
	blocked := db.users[user.ID]
	assert.True(t, blocked.IsBlocked)
	assert.Equal(t, oldEpoch+1, blocked.Epoch)

	// Unblocking does not bump the epoch again.
	require.NoError(t, m.ChangeRole(ctx, &admin, user.ID, false, false))
	unblocked := db.users[user.ID]
	assert.False(t, unblocked.IsBlocked)
	assert.Equal(t, blocked.Epoch, unblocked.Epoch)

	// Promoted users are out of reach for other admins afterwards.
	require.NoError(t, m.ChangeRole(ctx, &admin, other.ID, true, false))
	promoted := db.users[other.ID]
	assert.True(t, promoted.IsAdmin)
	err = m.ChangeRole(ctx, &admin, other.ID, false, false)
	assert.ErrorIs(t, err, ErrRoleChangeDenied)

	err = m.ChangeRole(ctx, &admin, "no-such-user", false, false)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
