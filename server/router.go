package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter HTTP + WebSocket 路由；管理与监控接口挂在 /admin 下
func NewRouter(m *RoomManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: m.Config().CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", m.HandleWS)

	r.With(middleware.Logger).Get("/admin/rooms", m.HandleRooms)
	r.Route("/admin/rooms/{room}", func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Get("/config", m.HandleGetConfig)
		r.Post("/config", m.HandleUpdateConfig)
		r.Get("/metrics", m.HandleMetrics)
		r.Get("/players", m.HandlePlayers)
		r.Post("/players/{player}/position", m.HandleSetPosition)
	})
	return r
}
