package userauth

import (
	"context"
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user with such username already exists")
	ErrUserNotFound      = errors.New("user not found")
)

type DB interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, userID string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user User) error
	CountUsers(ctx context.Context) (int64, error)
}
