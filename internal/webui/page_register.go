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

type registerData struct {
	CSRFField template.HTML
	Errors    []string
}

type registerDataBuilder struct{}

func (registerDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	req := bc.Req
	cfg := bc.Config
	log := bc.Log

	if bc.UserInfo != nil {
		return nil, bc.Redirect("/")
	}

	data := &registerData{
		CSRFField: csrf.TemplateField(req),
	}

	switch req.Method {
	case http.MethodGet:
		return data, nil
	case http.MethodPost:
		if err := req.ParseForm(); err != nil {
			return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
		}
		username := req.FormValue("username")
		password := req.FormValue("password")
		if req.FormValue("password2") != password {
			data.Errors = []string{"passwords do not match"}
			return data, nil
		}
		user, err := cfg.UserManager.Register(ctx, username, password, req.FormValue("full-name"))
		if err != nil {
			if errors.Is(err, userauth.ErrUserAlreadyExists) {
				data.Errors = []string{"username is already taken"}
				return data, nil
			}
			log.Warn("could not register user", slogx.Err(err))
			data.Errors = []string{err.Error()}
			return data, nil
		}
		bc.ResetSession(makeUserInfo(&user))
		return nil, bc.Redirect("/")
	default:
		return nil, httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func registerPage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{}, templ, registerDataBuilder{}, "register")
}
