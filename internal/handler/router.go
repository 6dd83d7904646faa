package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dyamada-jaki/chat-analyzer/internal/handler/api"
	"github.com/dyamada-jaki/chat-analyzer/internal/handler/webhook"
	middlewarePkg "github.com/dyamada-jaki/chat-analyzer/internal/middleware"
	ingestService "github.com/dyamada-jaki/chat-analyzer/internal/service/ingest"
	storeService "github.com/dyamada-jaki/chat-analyzer/internal/service/store"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/ws"
	"github.com/dyamada-jaki/chat-analyzer/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(messageStore *storeService.MessageStore, ingestSvc *ingestService.Service, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	apiHandler := api.New(messageStore)
	webhookHandler := webhook.New(ingestSvc)

	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Route("/webhook", webhookHandler.RegisterRoutes)
		apiHandler.RegisterRoutes(apiRouter)
	})

	r.Get("/ws", hub.HandleWebSocket)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"name":    "Chat Analyzer Backend",
			"version": "1.0.0",
			"status":  "running",
			"clients": hub.ClientCount(),
			"endpoints": map[string]string{
				"webhooks":  "/api/webhook",
				"api":       "/api",
				"websocket": "/ws",
			},
		})
	})

	return r
}
