// Package api provides the HTTP REST API server for FhatalX.
//
// It exposes the market snapshot and its projections (view, movers, ideas,
// trending, favorites), news, user preferences, Prometheus metrics and a
// WebSocket channel that pushes snapshot updates.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Fhatal-Studios/FhatalX/internal/config"
	"github.com/Fhatal-Studios/FhatalX/internal/dashboard"
	"github.com/Fhatal-Studios/FhatalX/internal/observability"
	"github.com/Fhatal-Studios/FhatalX/internal/preferences"
	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// Version is reported by the health endpoint. Set at build time.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	dash    *dashboard.Dashboard
	consent *preferences.ConsentRepo
	wsHub   *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
// Every committed snapshot is pushed to WebSocket clients.
func NewServer(cfg *config.Config, dash *dashboard.Dashboard, consent *preferences.ConsentRepo) *Server {
	srv := &Server{
		cfg:     cfg,
		dash:    dash,
		consent: consent,
		wsHub:   NewWSHub(),
	}
	dash.OnRefresh(func(*models.Snapshot) {
		srv.wsHub.Broadcast(WSMessage{Type: MsgSnapshot, Data: dash.Status()})
	})

	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled
// or an interrupt arrives, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()
	defer s.wsHub.Stop()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(done)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	case <-ctx.Done():
	}
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/health", s.handleHealth)

			// Market data
			r.Get("/view", s.handleView)
			r.Get("/snapshot", s.handleSnapshot)
			r.Get("/coins", s.handleCoins)
			r.Get("/movers", s.handleMovers)
			r.Get("/ideas", s.handleIdeas)
			r.Get("/trending", s.handleTrending)
			r.Get("/news", s.handleNews)
			r.Post("/refresh", s.handleRefresh)

			// Fiat selection
			r.Get("/fiat", s.handleGetFiat)
			r.Put("/fiat", s.handleSetFiat)

			// Favorites
			r.Get("/favorites", s.handleGetFavorites)
			r.Post("/favorites/{id}", s.handleToggleFavorite)

			// Consent
			r.Get("/consent", s.handleGetConsent)
			r.Post("/consent/accept", s.handleConsentAccept)
			r.Post("/consent/reject", s.handleConsentReject)
			r.Put("/consent", s.handleConsentSave)

			// Configuration (read-only)
			r.Get("/config", s.handleGetConfig)
			r.Get("/config/keys", s.handleGetConfigKeys)
		})
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FiatRequest is the body for PUT /api/v1/fiat.
type FiatRequest struct {
	Fiat string `json:"fiat"`
}

// FiatResponse describes the fiat selection.
type FiatResponse struct {
	Fiat      string   `json:"fiat"`
	Supported []string `json:"supported"`
}

// FavoritesResponse is returned by GET /api/v1/favorites.
type FavoritesResponse struct {
	IDs   []string         `json:"ids"`
	Coins []models.CoinRow `json:"coins,omitempty"`
}

// ToggleResponse is returned by POST /api/v1/favorites/{id}.
type ToggleResponse struct {
	ID       string   `json:"id"`
	Favorite bool     `json:"favorite"`
	IDs      []string `json:"ids"`
}

// ConsentRequest is the body for PUT /api/v1/consent.
type ConsentRequest struct {
	Analytics bool `json:"analytics"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":     "ok",
			"version":    Version,
			"dashboard":  s.dash.Status(),
			"ws_clients": s.wsHub.ClientCount(),
			"time_utc":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := s.dash.View(r.URL.Query().Get("q"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: view})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dash.Snapshot()
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap})
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	coins, err := s.dash.Coins(r.URL.Query().Get("q"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: coins})
}

func (s *Server) handleMovers(w http.ResponseWriter, r *http.Request) {
	movers, err := s.dash.Movers(r.URL.Query().Get("q"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: movers})
}

func (s *Server) handleIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := s.dash.Ideas(r.URL.Query().Get("q"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: ideas})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	rows, err := s.dash.Trending()
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rows})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	articles := s.dash.News(r.Context())
	if articles == nil {
		articles = []models.NewsArticle{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if _, err := s.dash.Refresh(r.Context()); err != nil {
		writeDashboardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.dash.Status()})
}

func (s *Server) handleGetFiat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: FiatResponse{
			Fiat:      s.dash.Fiat(),
			Supported: s.cfg.Market.SupportedFiats,
		},
	})
}

func (s *Server) handleSetFiat(w http.ResponseWriter, r *http.Request) {
	var req FiatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Fiat == "" {
		writeError(w, http.StatusBadRequest, "fiat is required")
		return
	}

	_, err := s.dash.SetFiat(r.Context(), req.Fiat)
	if errors.Is(err, dashboard.ErrRefreshFailed) {
		s.wsHub.Broadcast(WSMessage{Type: MsgFiat, Data: s.dash.Fiat()})
	}
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: FiatResponse{
			Fiat:      s.dash.Fiat(),
			Supported: s.cfg.Market.SupportedFiats,
		},
	})
}

func (s *Server) handleGetFavorites(w http.ResponseWriter, r *http.Request) {
	resp := FavoritesResponse{IDs: []string{}}
	if s.dash.FavoritesRepo() != nil {
		ids, err := s.dash.FavoritesRepo().List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.IDs = ids
	}
	// Coins are only known once a snapshot exists.
	if coins, err := s.dash.Favorites(); err == nil {
		resp.Coins = coins
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "coin id is required")
		return
	}

	added, ids, err := s.dash.ToggleFavorite(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.wsHub.Broadcast(WSMessage{Type: MsgFavorites, Data: ids})
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ToggleResponse{ID: id, Favorite: added, IDs: ids},
	})
}

func (s *Server) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	st, err := s.consent.Load()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: st})
}

func (s *Server) handleConsentAccept(w http.ResponseWriter, r *http.Request) {
	s.writeConsent(w, "accept", s.consent.AcceptAll)
}

func (s *Server) handleConsentReject(w http.ResponseWriter, r *http.Request) {
	s.writeConsent(w, "reject", s.consent.RejectAll)
}

func (s *Server) handleConsentSave(w http.ResponseWriter, r *http.Request) {
	var req ConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	s.writeConsent(w, "custom", func() (models.Consent, error) {
		return s.consent.SavePreferences(req.Analytics)
	})
}

func (s *Server) writeConsent(w http.ResponseWriter, decision string, save func() (models.Consent, error)) {
	c, err := save()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	observability.RecordConsent(decision)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: c})
}

// ============================================================
// Helpers
// ============================================================

// writeDashboardError maps aggregator errors to HTTP statuses.
func writeDashboardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrUnsupportedFiat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dashboard.ErrNoSnapshot):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, dashboard.ErrRefreshFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
