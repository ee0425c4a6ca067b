package webui

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"sideout/internal/favorites"
	"sideout/internal/feed"
	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/userauth"
	"sideout/internal/util/idgen"
	"sideout/internal/util/websockutil"
)

type SessionOptions struct {
	Key             []byte        `toml:"-"`
	MaxAge          time.Duration `toml:"max-age"`
	CleanupInterval time.Duration `toml:"cleanup-interval"`
	Insecure        bool          `toml:"insecure"`
}

func (o *SessionOptions) FillDefaults() {
	if o.MaxAge == 0 {
		o.MaxAge = 30 * 24 * time.Hour
	}
	if o.CleanupInterval == 0 {
		o.CleanupInterval = 1 * time.Hour
	}
}

func (o *SessionOptions) SetupSession(s *sessions.Options) {
	s.MaxAge = int(o.MaxAge.Seconds())
	s.HttpOnly = true
	s.Secure = !o.Insecure
	s.SameSite = http.SameSiteLaxMode
}

type SessionStoreFactory interface {
	NewSessionStore(ctx context.Context, opts SessionOptions) sessions.Store
}

type Config struct {
	Book                *scorebook.Keeper
	League              *league.Manager
	UserManager         *userauth.Manager
	Favorites           *favorites.Registry
	Feed                *feed.Feed
	SessionStoreFactory SessionStoreFactory
	ServerID            string

	prefix       string
	opts         *Options
	sessionStore sessions.Store
}

type Options struct {
	WebSocket     websockutil.Options `toml:"websocket"`
	Session       SessionOptions      `toml:"session"`
	CSRFKey       []byte              `toml:"-"`
	MatchRPSLimit float64             `toml:"match-rps-limit"`
	MatchRPSBurst int                 `toml:"match-rps-burst"`
	UpcomingLimit int                 `toml:"upcoming-limit"`
	RecentLimit   int                 `toml:"recent-limit"`
}

func (o *Options) FillDefaults() {
	o.WebSocket.FillDefaults()
	o.Session.FillDefaults()
	if o.MatchRPSLimit == 0.0 {
		o.MatchRPSLimit = 3
	}
	if o.MatchRPSBurst == 0 {
		o.MatchRPSBurst = 5
	}
	if o.UpcomingLimit == 0 {
		o.UpcomingLimit = 10
	}
	if o.RecentLimit == 0 {
		o.RecentLimit = 10
	}
}

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}

func Handle(ctx context.Context, log *slog.Logger, mux *http.ServeMux, prefix string, cfg Config, o Options) {
	o.FillDefaults()

	if cfg.ServerID == "" {
		cfg.ServerID = idgen.ID()
	}
	cfg.prefix = prefix
	cfg.opts = &o
	cfg.sessionStore = cfg.SessionStoreFactory.NewSessionStore(ctx, o.Session)

	b := middlewareBuilder{
		Log:    log,
		Prefix: prefix,
		CSRFProtect: csrf.Protect(o.CSRFKey,
			csrf.Secure(!o.Session.Insecure),
			csrf.Path(prefix+"/"),
		),
		Compress: gziphandler.GzipHandler,
	}
	templ := newTemplator(&cfg)

	mux.Handle(prefix+"/css/", b.WrapStatic(http.FileServerFS(staticData)))
	mux.Handle(prefix+"/js/", b.WrapStatic(http.FileServerFS(staticData)))
	mux.Handle(prefix+"/{$}", b.WrapPage(must(mainPage(log, &cfg, templ))))
	mux.Handle(prefix+"/matches", b.WrapPage(must(matchesPage(log, &cfg, templ))))
	mux.Handle(prefix+"/match/{matchID}", b.WrapPage(must(matchPage(log, &cfg, templ))))
	mux.Handle(prefix+"/match/{matchID}/ws", b.WrapWebSocket(must(matchWebSocket(log, &cfg, templ))))
	mux.Handle(prefix+"/tournaments", b.WrapPage(must(tournamentsPage(log, &cfg, templ))))
	mux.Handle(prefix+"/tournament/{tournamentID}", b.WrapPage(must(tournamentPage(log, &cfg, templ))))
	mux.Handle(prefix+"/teams", b.WrapPage(must(teamsPage(log, &cfg, templ))))
	mux.Handle(prefix+"/team/{teamID}", b.WrapPage(must(teamPage(log, &cfg, templ))))
	mux.Handle(prefix+"/favorite", b.WrapPage(must(favoritePage(log, &cfg, templ))))
	mux.Handle(prefix+"/login", b.WrapPage(must(loginPage(log, &cfg, templ))))
	mux.Handle(prefix+"/register", b.WrapPage(must(registerPage(log, &cfg, templ))))
	mux.Handle(prefix+"/logout", b.WrapPage(must(logoutPage(log, &cfg, templ))))
	mux.Handle(prefix+"/profile", b.WrapPage(must(profilePage(log, &cfg, templ))))
	mux.Handle(prefix+"/admin/team/new", b.WrapPage(must(teamNewPage(log, &cfg, templ))))
	mux.Handle(prefix+"/admin/tournament/new", b.WrapPage(must(tournamentNewPage(log, &cfg, templ))))
	mux.Handle(prefix+"/admin/match/new", b.WrapPage(must(matchNewPage(log, &cfg, templ))))
	mux.Handle(prefix+"/admin/match/{matchID}", b.WrapPage(must(matchAdminPage(log, &cfg, templ))))
	mux.Handle(prefix+"/admin/users", b.WrapPage(must(usersPage(log, &cfg, templ))))
	mux.Handle(prefix+"/", b.WrapPage(must(e404Page(log, &cfg, templ))))
}
