package webui

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"sideout/internal/feed"
	"sideout/internal/scorebook"
	"sideout/internal/util/httputil"
	"sideout/internal/util/slogx"
	"sideout/internal/util/websockutil"
)

type matchWebSocketSession struct {
	req  *http.Request
	log  *slog.Logger
	cfg  *Config
	tmpl *template.Template
	s    *websockutil.Session
}

// shutdownWithPageRefresh tells the client to reload the whole page. Used
// when the match is gone and a fragment update cannot express that.
func (s *matchWebSocketSession) shutdownWithPageRefresh() {
	var b bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&b, "part/refresh", nil); err != nil {
		s.log.Error("could not render refresh part", slogx.Err(err))
		s.s.Shutdown()
		return
	}
	if err := s.s.WriteMsg(websocket.TextMessage, b.Bytes()); err != nil {
		s.log.Info("could not write message", slogx.Err(err))
		s.s.Close()
		return
	}
	s.s.Shutdown()
}

func (s *matchWebSocketSession) renderAndSend(fragment string, data any) bool {
	var b bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&b, fragment, data); err != nil {
		s.log.Error("could not render fragment", slogx.Err(err))
		s.s.Shutdown()
		return false
	}
	if err := s.s.WriteMsg(websocket.TextMessage, b.Bytes()); err != nil {
		s.log.Info("could not write message", slogx.Err(err))
		return false
	}
	return true
}

func (s *matchWebSocketSession) Do() {
	defer s.s.Close()

	log := s.log
	matchID := s.req.PathValue("matchID")

	sub := s.cfg.Feed.Subscribe(
		feed.RowTopic("matches", matchID),
		feed.RowTopic("sets", matchID),
	)
	defer sub.Close()

	limit := rate.NewLimiter(rate.Limit(s.cfg.opts.MatchRPSLimit), s.cfg.opts.MatchRPSBurst)
	for {
		card, err := s.cfg.Book.Card(s.req.Context(), matchID)
		if err != nil {
			if errors.Is(err, scorebook.ErrMatchNotFound) {
				s.shutdownWithPageRefresh()
				return
			}
			log.Warn("could not get match card", slogx.Err(err))
			s.s.Shutdown()
			return
		}

		if !s.renderAndSend("part/scoreboard", buildScoreboardPartData(card)) {
			return
		}

		if err := limit.Wait(s.req.Context()); err != nil {
			return
		}
		select {
		case _, ok := <-sub.C():
			if !ok {
				return
			}
		case <-s.s.Done():
			return
		}
	}
}

type matchWebSocketImpl struct {
	log     *slog.Logger
	cfg     *Config
	tmpl    *template.Template
	factory *websockutil.SessionFactory
}

func matchWebSocket(log *slog.Logger, cfg *Config, templator *templator) (http.Handler, error) {
	tmpl, err := templator.Get("")
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return &matchWebSocketImpl{
		log:     log,
		cfg:     cfg,
		tmpl:    tmpl,
		factory: websockutil.NewSessionFactory(cfg.opts.WebSocket),
	}, nil
}

func (s *matchWebSocketImpl) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	log := s.log.With(slog.String("rid", httputil.ExtractReqID(ctx)))
	log.Info("handle match websocket", slog.String("addr", req.RemoteAddr))

	session, err := s.factory.NewSession(w, req, log, func(msg []byte) error {
		log.Info("unexpected message from socket")
		return nil
	})
	if err != nil {
		return
	}

	matchSession := &matchWebSocketSession{
		req:  req,
		log:  log,
		cfg:  s.cfg,
		tmpl: s.tmpl,
		s:    session,
	}
	matchSession.Do()
}
