package userauth

import (
	crand "crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"sideout/internal/util/timeutil"
)

type PasswordOptions struct {
	Time    uint32 `toml:"time"`
	Memory  uint32 `toml:"memory"`
	Threads uint8  `toml:"threads"`
	KeyLen  uint32 `toml:"key-len"`
	SaltLen uint32 `toml:"salt-len"`
}

var defaultPasswordOptions = &PasswordOptions{
	Time:    3,
	Memory:  16384,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 32,
}

// User mirrors the profiles table. The json-tagged fields form the wire
// contract; credentials and moderation state never leave the server.
type User struct {
	ID           string           `gorm:"primaryKey" json:"id"`
	Username     string           `gorm:"index" json:"username"`
	FullName     *string          `json:"full_name"`
	AvatarURL    *string          `json:"avatar_url"`
	IsAdmin      bool             `json:"is_admin"`
	IsBlocked    bool             `json:"-"`
	PasswordHash []byte           `json:"-"`
	PasswordSalt []byte           `json:"-"`
	Epoch        int              `json:"-"`
	CreatedAt    timeutil.UTCTime `json:"created_at"`
	UpdatedAt    timeutil.UTCTime `json:"updated_at"`
}

func (User) TableName() string { return "profiles" }

func (u *User) doHash(password []byte, o *PasswordOptions) []byte {
	return argon2.IDKey(password, u.PasswordSalt, o.Time, o.Memory, o.Threads, o.KeyLen)
}

func (u *User) SetPassword(password []byte, o *PasswordOptions) error {
	if o == nil {
		o = defaultPasswordOptions
	}

	salt := make([]byte, o.SaltLen)
	_, err := io.ReadFull(crand.Reader, salt)
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	u.PasswordSalt = salt
	u.PasswordHash = u.doHash(password, o)
	u.Epoch++
	return nil
}

func (u *User) VerifyPassword(password []byte, o *PasswordOptions) bool {
	if o == nil {
		o = defaultPasswordOptions
	}
	hash := u.doHash(password, o)
	return subtle.ConstantTimeCompare(hash, u.PasswordHash) == 1
}

var ErrRoleChangeDenied = errors.New("role change denied")

// CanChangeRole checks whether initiator may set the admin/blocked flags of
// u to the proposed values. Every rejection wraps ErrRoleChangeDenied.
func (u *User) CanChangeRole(initiator *User, isAdmin, isBlocked bool) error {
	if !initiator.IsAdmin || initiator.IsBlocked {
		return fmt.Errorf("%w: insufficient privilege", ErrRoleChangeDenied)
	}

	// Admins manage themselves only in the safe direction: they may not
	// drop their own admin bit or block themselves, or the site could end
	// up with no admin at all.
	if initiator.ID == u.ID {
		if !isAdmin {
			return fmt.Errorf("%w: cannot downgrade yourself from admin", ErrRoleChangeDenied)
		}
		if isBlocked {
			return fmt.Errorf("%w: cannot block yourself", ErrRoleChangeDenied)
		}
		return nil
	}

	// Admins cannot touch other admins.
	if u.IsAdmin {
		return fmt.Errorf("%w: insufficient privilege", ErrRoleChangeDenied)
	}

	return nil
}
