package webui

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"sideout/internal/userauth"
	"sideout/internal/util/httputil"
	"sideout/internal/util/slogx"
)

type loginData struct {
	CSRFField template.HTML
	Errors    []string
}

type loginDataBuilder struct{}

func (loginDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	req := bc.Req
	cfg := bc.Config
	log := bc.Log

	if bc.UserInfo != nil {
		return nil, bc.Redirect("/")
	}

	data := &loginData{
		CSRFField: csrf.TemplateField(req),
	}

	switch req.Method {
	case http.MethodGet:
		return data, nil
	case http.MethodPost:
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		user, strErr := func() (userauth.User, string) {
			username, password := req.FormValue("username"), req.FormValue("password")
			user, err := cfg.UserManager.GetUserByUsername(ctx, username)
			if err != nil {
				if errors.Is(err, userauth.ErrUserNotFound) {
					return userauth.User{}, "invalid username or password"
				}
				log.Warn("could not get user", slogx.Err(err))
				return userauth.User{}, "internal server error"
			}
			if !cfg.UserManager.VerifyPassword(&user, []byte(password)) {
				return userauth.User{}, "invalid username or password"
			}
			if user.IsBlocked {
				return userauth.User{}, "user is blocked"
			}
			return user, ""
		}()
		if strErr != "" {
			data.Errors = []string{strErr}
			return data, nil
		}
		bc.ResetSession(makeUserInfo(&user))
		return nil, bc.Redirect("/")
	default:
		return nil, httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func loginPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{}, templ, loginDataBuilder{}, "login")
}
