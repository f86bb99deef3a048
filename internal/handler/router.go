package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/badgeman/internal/metrics"
	"github.com/hitoshi/badgeman/internal/middleware"
	"github.com/hitoshi/badgeman/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	Gatherer          prometheus.Gatherer
	HealthChecker     repository.HealthChecker

	// 認証
	AuthService AuthServiceInterface

	// バッジ・プロフィール
	BadgeService   BadgeServiceInterface
	ProfileService ProfileServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → Metrics → SecurityHeaders → CORS
//
// /api/badges へのPOSTのみBearerTokenミドルウェアを通す。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, mc)
	badgeHandler := NewBadgeHandler(deps.BadgeService, deps.ProfileService, mc)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		// 認証
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)

		// バッジ
		r.With(middleware.NewBearerTokenMiddleware()).Post("/badges", badgeHandler.CreateBadge)
		r.Get("/badges/{id}", badgeHandler.GetProfile)
		r.Get("/profile/{id}", badgeHandler.GetProfile)
	})

	return r
}
