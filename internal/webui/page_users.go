package webui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"sideout/internal/userauth"
	"sideout/internal/util/httputil"
	"sideout/internal/util/sliceutil"
	"sideout/internal/util/slogx"
)

type usersDataItem struct {
	ID       string
	Username string
	FullName string
	IsAdmin  bool
	Blocked  bool
	Self     bool
}

type usersData struct {
	Users     []usersDataItem
	CSRFField template.HTML
	Errors    []string
}

type usersDataBuilder struct{}

// applyRoleAction maps a form action onto the target's current flags, so
// blocking an admin or promoting a blocked user leaves the other flag alone.
func applyRoleAction(u userauth.User, action string) (isAdmin, isBlocked, ok bool) {
	isAdmin, isBlocked = u.IsAdmin, u.IsBlocked
	switch action {
	case "promote":
		isAdmin = true
	case "block":
		isBlocked = true
	case "unblock":
		isBlocked = false
	default:
		return false, false, false
	}
	return isAdmin, isBlocked, true
}

func (usersDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	cfg := bc.Config
	req := bc.Req
	log := bc.Log

	if err := requireAdmin(bc); err != nil {
		return nil, err
	}

	var actionErr string
	if req.Method == http.MethodPost {
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		userID := req.FormValue("user-id")
		target, err := cfg.UserManager.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, userauth.ErrUserNotFound) {
				return nil, httputil.MakeError(http.StatusNotFound, "user not found")
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
		isAdmin, isBlocked, ok := applyRoleAction(target, req.FormValue("action"))
		if !ok {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad action")
		}
		err = cfg.UserManager.ChangeRole(ctx, bc.FullUser, userID, isAdmin, isBlocked)
		if err != nil {
			if errors.Is(err, userauth.ErrUserNotFound) {
				return nil, httputil.MakeError(http.StatusNotFound, "user not found")
			}
			if errors.Is(err, userauth.ErrRoleChangeDenied) {
				actionErr = err.Error()
			} else {
				log.Warn("could not change role", slogx.Err(err))
				return nil, fmt.Errorf("change role: %w", err)
			}
		}
		if actionErr == "" {
			return nil, bc.Redirect("/admin/users")
		}
	}

	users, err := cfg.UserManager.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	data := &usersData{
		Users: sliceutil.Map(users, func(u userauth.User) usersDataItem {
			item := usersDataItem{
				ID:       u.ID,
				Username: u.Username,
				IsAdmin:  u.IsAdmin,
				Blocked:  u.IsBlocked,
				Self:     u.ID == bc.FullUser.ID,
			}
			if u.FullName != nil {
				item.FullName = *u.FullName
			}
			return item
		}),
		CSRFField: csrf.TemplateField(req),
	}
	if actionErr != "" {
		data.Errors = []string{actionErr}
	}
	return data, nil
}

func usersPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{FullUser: true}, templ, usersDataBuilder{}, "users")
}
