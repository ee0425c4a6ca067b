package webui

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"sideout/internal/util/httputil"
	"sideout/internal/util/slogx"
)

type profileData struct {
	Username  string
	FullName  string
	AvatarURL string
	CSRFField template.HTML
	Errors    []string
	Saved     bool
}

type profileDataBuilder struct{}

func (profileDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	req := bc.Req
	cfg := bc.Config
	log := bc.Log
	user := bc.FullUser

	if user == nil {
		return nil, bc.Redirect("/login")
	}

	data := &profileData{
		Username:  user.Username,
		CSRFField: csrf.TemplateField(req),
	}
	if user.FullName != nil {
		data.FullName = *user.FullName
	}
	if user.AvatarURL != nil {
		data.AvatarURL = *user.AvatarURL
	}

	switch req.Method {
	case http.MethodGet:
		return data, nil
	case http.MethodPost:
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		switch req.FormValue("action") {
		case "profile":
			fullName := req.FormValue("full-name")
			avatarURL := req.FormValue("avatar-url")
			if _, err := cfg.UserManager.UpdateProfile(ctx, *user, fullName, avatarURL); err != nil {
				log.Warn("could not update profile", slogx.Err(err))
				data.Errors = []string{err.Error()}
				return data, nil
			}
			data.FullName = fullName
			data.AvatarURL = avatarURL
			data.Saved = true
			return data, nil
		case "password":
			oldPassword := req.FormValue("old-password")
			newPassword := req.FormValue("new-password")
			if !cfg.UserManager.VerifyPassword(user, []byte(oldPassword)) {
				data.Errors = []string{"old password does not match"}
				return data, nil
			}
			if err := cfg.UserManager.ChangePassword(ctx, user, newPassword); err != nil {
				data.Errors = []string{err.Error()}
				return data, nil
			}
			// Changing the password bumps the epoch, so re-login the
			// current session with the fresh user.
			bc.ResetSession(makeUserInfo(user))
			data.Saved = true
			return data, nil
		default:
			return nil, httputil.MakeError(http.StatusBadRequest, "bad action")
		}
	default:
		return nil, httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func profilePage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{FullUser: true}, templ, profileDataBuilder{}, "profile")
}
