package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"houndarr/internal/config"
	"houndarr/internal/logging"
)

// apiServer exposes a read/control HTTP surface for dashboards and scripts.
type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(cfg.APIToken))
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", srv.handleStatus)
		r.Get("/instances", srv.handleInstances)
		r.Get("/strikes", srv.handleStrikes)
		r.Post("/pause", srv.handlePause)
		r.Post("/resume", srv.handleResume)
		r.Post("/dryrun", srv.handleDryRun)
		r.Route("/instances/{name}", func(r chi.Router) {
			r.Post("/pause", srv.handleInstancePause)
			r.Post("/resume", srv.handleInstanceResume)
			r.Post("/force", srv.handleForceRun)
			r.Post("/reset", srv.handleReset)
		})
	})

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return err
	}
	s.listener = listener
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("status API stopped", logging.Error(err))
		}
	}()
	s.logger.Info("status API listening", logging.String("bind", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleInstances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.Status().Instances)
}

func (s *apiServer) handleStrikes(w http.ResponseWriter, r *http.Request) {
	records, err := s.daemon.Strikes(r.Context(), r.URL.Query().Get("instance"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *apiServer) handlePause(w http.ResponseWriter, r *http.Request) {
	_ = s.daemon.Pause("")
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *apiServer) handleResume(w http.ResponseWriter, r *http.Request) {
	_ = s.daemon.Resume("")
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

func (s *apiServer) handleDryRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.daemon.SetDryRun(body.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"dry_run": body.Enabled})
}

func (s *apiServer) handleInstancePause(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.daemon.Pause(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instance": name, "paused": true})
}

func (s *apiServer) handleInstanceResume(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.daemon.Resume(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instance": name, "paused": false})
}

func (s *apiServer) handleForceRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.daemon.ForceRun(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"instance": name, "forced": true})
}

func (s *apiServer) handleReset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := s.daemon.EmergencyReset(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instance": name, "removed": removed})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
