package http

import (
	"net/http"
	"time"

	_ "github.com/DRSN-tech/furniture-recs/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router         *chi.Mux
	logger         logger.Logger
	allowedOrigins []string
}

func NewRouter(router *chi.Mux, logger logger.Logger, allowedOrigins []string) *Router {
	return &Router{router: router, logger: logger, allowedOrigins: allowedOrigins}
}

func (r *Router) Init(recUC usecase.RecommendationUC, anUC usecase.AnalyticsUC) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(r.requestLogger)
	r.router.Use(middleware.Recoverer)
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Get("/", status)

	r.router.Route("/api", func(api chi.Router) {
		recHandler := NewRecommendationHandler(recUC, r.logger)
		registerRecommendationRoutes(api, recHandler)

		anHandler := NewAnalyticsHandler(anUC, r.logger)
		registerAnalyticsRoutes(api, anHandler)
	})
}

func registerRecommendationRoutes(router chi.Router, recHandler *RecommendationHandler) {
	router.Get("/recommend", recHandler.recommend)
	router.Post("/chat", recHandler.chat)
}

func registerAnalyticsRoutes(router chi.Router, anHandler *AnalyticsHandler) {
	router.Route("/analytics", func(an chi.Router) {
		an.Get("/", anHandler.summary)
		an.Get("/queries", anHandler.popularQueries)
	})
}

func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, req)

		r.logger.Debugf("%s %s %d %s [%s]",
			req.Method, req.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(req.Context()))
	})
}
