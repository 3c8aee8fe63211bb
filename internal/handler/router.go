package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bloodlink/internal/auth"
	"github.com/hitoshi/bloodlink/internal/middleware"
)

// HealthChecker はヘルスチェックエンドポイントが必要とするストア疎通確認インターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          auth.IdentityVerifier
	RoleFinder        middleware.RoleFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス（nil可）
	MetricsRecorder middleware.HTTPMetricsRecorder
	MetricsHandler  http.Handler

	// ヘルスチェック（nil可）
	HealthChecker HealthChecker

	// サービス
	DonorService DonorServiceInterface
	UserService  UserServiceInterface
	AdminService AdminServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → RateLimit(General)
//
// 認証ガードは認証が必要なルートグループにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}
	r.Use(deps.RateLimiter.GeneralMiddleware())

	donorHandler := NewDonorHandler(deps.DonorService)
	userHandler := NewUserHandler(deps.UserService)
	adminHandler := NewAdminHandler(deps.AdminService)

	// --- 認証不要のルート ---

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("bloodlink api"))
	})

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// ドナー一覧は公開（検索ページで未ログインでも閲覧できる）
	r.Get("/donors", donorHandler.ListDonors)

	// ユーザー登録は冪等（サインイン直後にクライアントが呼ぶ）
	r.Post("/users", userHandler.Register)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier))

		// ドナー管理
		// POST /donors - ドナー登録（登録専用レート制限を追加）
		r.With(deps.RateLimiter.DonorRegistrationMiddleware()).Post("/donors", donorHandler.CreateDonor)

		// 本人のレコードに限定した操作
		r.Route("/donors/{email}", func(r chi.Router) {
			r.Use(middleware.NewRequireSelfMiddleware())
			r.Get("/", donorHandler.GetDonor)
			r.Patch("/", donorHandler.UpdateDonor)
			r.Delete("/", donorHandler.DeleteDonor)
		})

		// ユーザー管理
		r.Get("/users", userHandler.ListUsers)
		r.With(middleware.NewRequireSelfMiddleware()).Get("/users/{email}", userHandler.GetUser)

		// 管理者向け
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NewRequireAdminMiddleware(deps.RoleFinder))
			r.Get("/dashboard-stats", adminHandler.DashboardStats)
			r.Get("/users", adminHandler.SearchUsers)
		})
	})

	return r
}

// newHealthHandler はストア疎通を確認するヘルスチェックハンドラーを返す。
// checkerがnilの場合はプロセス生存のみを報告する。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Ping(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
				})
				return
			}
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
