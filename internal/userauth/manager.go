package userauth

import (
	"context"
	"fmt"
	"log/slog"

	"sideout/internal/util/clone"
	"sideout/internal/util/idgen"
	"sideout/internal/util/timeutil"
)

type ManagerOptions struct {
	Password *PasswordOptions `toml:"password"`
}

func (o ManagerOptions) Clone() ManagerOptions {
	o.Password = clone.TrivialPtr(o.Password)
	return o
}

type Manager struct {
	DB
	o   *ManagerOptions
	log *slog.Logger
}

func NewManager(log *slog.Logger, db DB, o ManagerOptions) *Manager {
	o = o.Clone()
	return &Manager{
		DB:  db,
		o:   &o,
		log: log,
	}
}

// Register creates a new account. The first account ever created becomes an
// admin, so a fresh deployment can bootstrap itself.
func (m *Manager) Register(ctx context.Context, username, password, fullName string) (User, error) {
	if err := ValidateUsername(username); err != nil {
		return User{}, fmt.Errorf("validate username: %w", err)
	}
	if err := ValidatePassword(password); err != nil {
		return User{}, fmt.Errorf("validate password: %w", err)
	}
	if err := ValidateFullName(fullName); err != nil {
		return User{}, fmt.Errorf("validate full name: %w", err)
	}

	now := timeutil.NowUTC()
	user := User{
		ID:        idgen.ID(),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if fullName != "" {
		user.FullName = &fullName
	}
	if err := user.SetPassword([]byte(password), m.o.Password); err != nil {
		return User{}, fmt.Errorf("set password: %w", err)
	}

	cnt, err := m.CountUsers(ctx)
	if err != nil {
		return User{}, fmt.Errorf("count users: %w", err)
	}
	if cnt == 0 {
		user.IsAdmin = true
	}

	if err := m.CreateUser(ctx, user); err != nil {
		return User{}, err
	}
	if user.IsAdmin {
		m.log.Warn("first user registered, granting admin",
			slog.String("user_id", user.ID),
			slog.String("username", user.Username),
		)
	}
	return user, nil
}

func (m *Manager) SetPassword(u *User, password []byte) error {
	return u.SetPassword(password, m.o.Password)
}

func (m *Manager) VerifyPassword(u *User, password []byte) bool {
	return u.VerifyPassword(password, m.o.Password)
}

// ChangeRole updates the admin/blocked flags of a user on behalf of
// initiator, enforcing the role-change guards. Blocking bumps the epoch so
// existing sessions die.
func (m *Manager) ChangeRole(ctx context.Context, initiator *User, userID string, isAdmin, isBlocked bool) error {
	user, err := m.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.CanChangeRole(initiator, isAdmin, isBlocked); err != nil {
		return err
	}
	if user.IsAdmin == isAdmin && user.IsBlocked == isBlocked {
		return nil
	}
	user.IsAdmin = isAdmin
	if isBlocked && !user.IsBlocked {
		user.Epoch++
	}
	user.IsBlocked = isBlocked
	user.UpdatedAt = timeutil.NowUTC()
	return m.UpdateUser(ctx, user)
}

// ChangePassword validates and stores a new password. The epoch bump kills
// every other session of the user; the caller re-authenticates the current
// one.
func (m *Manager) ChangePassword(ctx context.Context, u *User, password string) error {
	if err := ValidatePassword(password); err != nil {
		return fmt.Errorf("validate password: %w", err)
	}
	if err := u.SetPassword([]byte(password), m.o.Password); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	u.UpdatedAt = timeutil.NowUTC()
	return m.UpdateUser(ctx, *u)
}

// UpdateProfile changes the descriptive fields of the user's own profile.
func (m *Manager) UpdateProfile(ctx context.Context, user User, fullName, avatarURL string) (User, error) {
	if err := ValidateFullName(fullName); err != nil {
		return User{}, fmt.Errorf("validate full name: %w", err)
	}
	user.FullName = nil
	if fullName != "" {
		user.FullName = &fullName
	}
	user.AvatarURL = nil
	if avatarURL != "" {
		user.AvatarURL = &avatarURL
	}
	user.UpdatedAt = timeutil.NowUTC()
	if err := m.UpdateUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}
