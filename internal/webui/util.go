package webui

import (
	"log/slog"
	"net/http"

	"sideout/internal/util/httputil"
	"sideout/internal/util/slogx"
)

func writeHTTPErr(log *slog.Logger, w http.ResponseWriter, err error) {
	if err = httputil.WriteErrorResponse(err, w); err != nil {
		log.Info("error writing error response", slogx.Err(err))
	}
}

// requireAdmin guards the admin pages. It relies on FullUser, so the page
// must be declared with pageOptions{FullUser: true}.
func requireAdmin(bc builderCtx) error {
	if bc.FullUser == nil || !bc.FullUser.IsAdmin {
		return httputil.MakeError(http.StatusForbidden, "operation not permitted")
	}
	return nil
}
