/*
Package handler provides the HTTP gateway in front of the hub.

This file defines the main Router, applying logging, CORS, and recovery
middleware, and wiring the health, metrics, user lookup, and WebSocket
endpoints.
*/
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"relayhub/internal/app/chat"
	"relayhub/internal/configs"
	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/limiter"
	"relayhub/internal/pkg/logx"
)

const (
	// wsConnectRate and wsConnectBurst bound WebSocket connects per IP.
	wsConnectRate  = 0.2
	wsConnectBurst = 5

	// apiRate and apiBurst bound lookup requests per IP.
	apiRate  = 5.0
	apiBurst = 10
)

// Router sets up the gateway's routing table.
func Router(hub *chat.Hub, cfg *configs.AppConfig) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(wsConnectRate), wsConnectBurst)
	apiLimiter := limiter.NewIPRateLimiter(rate.Limit(apiRate), apiBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range cfg.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if cfg.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if cfg.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(cfg.AllowedOrigins) > 0 {
		corsAllowedOrigins = cfg.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": hub.Registry().Len(),
			"users":    len(hub.Registry().RegisteredUsers()),
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(apiLimiter.Middleware)

		r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, hub.Registry().RegisteredUsers())
		})

		r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				respondError(w, errs.NewError(errs.ErrUserNotFound))
				return
			}

			session, ok := hub.Registry().FindByID(id)
			if !ok {
				respondError(w, errs.NewError(errs.ErrUserNotFound))
				return
			}

			u, _ := session.RegisteredUser()
			respondJSON(w, http.StatusOK, u)
		})
	})

	r.Get("/ws", HandleWebSocket(hub, cfg, upgrader, connectLimiter))

	return r
}

// respondJSON writes payload as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logx.Error(err, "Error encoding JSON response")
	}
}

// respondError writes a CustomError using its code and HTTP status.
func respondError(w http.ResponseWriter, customErr *errs.CustomError) {
	respondJSON(w, customErr.Status, map[string]any{
		"code":    customErr.Code,
		"message": customErr.Message,
	})
}
