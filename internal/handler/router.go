package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/blockgpt-labs/blockgpt/server/internal/handler/chat"
	middlewarePkg "github.com/blockgpt-labs/blockgpt/server/internal/middleware"
	"github.com/blockgpt-labs/blockgpt/server/internal/realtime"
	chatservice "github.com/blockgpt-labs/blockgpt/server/internal/service/chat"
	"github.com/blockgpt-labs/blockgpt/server/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatservice.Service, hub *realtime.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatHandler := chathandler.New(chatSvc)
	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
	})

	hub.RegisterRoutes(r)

	return r
}
