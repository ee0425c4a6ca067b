package webui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sideout/internal/favorites"
	"sideout/internal/util/httputil"
	"sideout/internal/util/slogx"
)

type favoriteDataBuilder struct{}

// Build flips one favorite and sends the user back where they came from.
// The page never renders; every outcome is a redirect or an error.
func (favoriteDataBuilder) Build(ctx context.Context, bc builderCtx) (any, error) {
	req := bc.Req
	log := bc.Log

	if req.Method != http.MethodPost {
		return nil, httputil.MakeError(http.StatusMethodNotAllowed, "method not allowed")
	}
	if err := req.ParseForm(); err != nil {
		return nil, httputil.MakeError(http.StatusBadRequest, "bad form data")
	}

	var kind favorites.Kind
	switch req.FormValue("kind") {
	case "team":
		kind = favorites.KindTeam
	case "match":
		kind = favorites.KindMatch
	default:
		return nil, httputil.MakeError(http.StatusBadRequest, "bad favorite kind")
	}
	entityID := req.FormValue("id")
	if entityID == "" {
		return nil, httputil.MakeError(http.StatusBadRequest, "no entity id")
	}

	if bc.Favorites == nil {
		return nil, bc.Redirect("/login")
	}
	if err := bc.Favorites.Toggle(ctx, kind, entityID); err != nil {
		if errors.Is(err, favorites.ErrUnauthorized) {
			return nil, bc.Redirect("/login")
		}
		log.Warn("favorite toggle failed", slogx.Err(err))
		return nil, httputil.MakeError(http.StatusInternalServerError, "could not save favorite")
	}

	back := req.FormValue("back")
	if back == "" || !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		back = "/"
	}
	return nil, bc.Redirect(back)
}

func favoritePage(log *slog.Logger, cfg *Config, templ *templator) (http.Handler, error) {
	return newPage(log, cfg, pageOptions{}, templ, favoriteDataBuilder{}, "")
}
