package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang/glog"
	"github.com/wordchain/wordreward/monitor"
	"github.com/wordchain/wordreward/reward"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the game to the page and to operators.
type Server struct {
	ctrl    *Controller
	rewards *reward.Coordinator
	bridge  *Bridge
	router  http.Handler
}

func NewServer(ctrl *Controller, rewards *reward.Coordinator, bridge *Bridge) *Server {
	s := &Server{ctrl: ctrl, rewards: rewards, bridge: bridge}
	s.router = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Method(http.MethodGet, "/wallet", walletStatusHandler(s.ctrl))
		api.Method(http.MethodPost, "/wallet/connect", connectWalletHandler(s.ctrl))
		api.Method(http.MethodPost, "/wallet/disconnect", disconnectWalletHandler(s.ctrl))
		api.Method(http.MethodGet, "/balance", balanceHandler(s.ctrl))
		api.Method(http.MethodGet, "/reserve", reserveHandler(s.ctrl))

		api.Method(http.MethodGet, "/game", gameHandler(s.ctrl))
		api.Method(http.MethodPost, "/game/guess", guessHandler(s.ctrl))
		api.Method(http.MethodDelete, "/game/guess/{letter}", removeGuessHandler(s.ctrl))
		api.Method(http.MethodPost, "/game/reset", resetGameHandler(s.ctrl))

		api.Method(http.MethodGet, "/rewards", ticketsHandler(s.rewards))
		api.Method(http.MethodGet, "/rewards/{gameID}", ticketHandler(s.rewards))
		api.Method(http.MethodPost, "/rewards/{gameID}/reset", retryTicketHandler(s.ctrl))
	})

	if s.bridge != nil {
		r.Method(http.MethodGet, "/ws", s.bridge)
	}
	if monitor.Enabled && monitor.Exporter != nil {
		r.Method(http.MethodGet, "/metrics", monitor.Exporter)
	}

	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		glog.Infof("HTTP server listening on %v", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("Error shutting down HTTP server err=%q", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
