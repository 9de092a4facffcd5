package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(app *App, staticDir, corsOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/ping", PingHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/detect", app.DetectHandler)
		r.Get("/recommendations/{emotion}", app.RecommendHandler)
		r.Post("/token/refresh", app.TokenRefreshHandler)
		r.Get("/history", app.HistoryHandler)
	})

	fileServer := http.FileServer(http.Dir(staticDir))
	r.Handle("/*", fileServer)

	return r
}
