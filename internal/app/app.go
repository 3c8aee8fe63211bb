// Package app はアプリケーションの初期化・ワイヤリング・起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hitoshi/bloodlink/internal/auth"
	"github.com/hitoshi/bloodlink/internal/config"
	"github.com/hitoshi/bloodlink/internal/database"
	"github.com/hitoshi/bloodlink/internal/donor"
	"github.com/hitoshi/bloodlink/internal/handler"
	"github.com/hitoshi/bloodlink/internal/logger"
	"github.com/hitoshi/bloodlink/internal/metrics"
	"github.com/hitoshi/bloodlink/internal/middleware"
	"github.com/hitoshi/bloodlink/internal/repository"
	"github.com/hitoshi/bloodlink/internal/security"
	"github.com/hitoshi/bloodlink/internal/user"
)

// connectTimeout はMongoDB初回接続・切断のタイムアウト。
const connectTimeout = 10 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	return runServe(cfg)
}

// mongoHealthChecker はMongoDBクライアントをhandler.HealthCheckerに適合させる。
type mongoHealthChecker struct {
	client *mongo.Client
}

// Ping はプライマリノードへの到達性を確認する。
func (c *mongoHealthChecker) Ping(ctx context.Context) error {
	return database.Ping(ctx, c.client)
}

// runServe はAPIサーバーモードで起動する。
// ストア接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストア接続
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer func() {
		if err := database.Disconnect(client, connectTimeout); err != nil {
			slog.Error("store disconnect failed", slog.String("error", err.Error()))
		}
	}()

	if err := database.Ping(ctx, client); err != nil {
		return fmt.Errorf("failed to reach store: %w", err)
	}

	slog.Info("store connection established")

	db := client.Database(cfg.MongoDatabase)

	// 2. リポジトリの初期化
	donorRepo := repository.NewMongoDonorRepo(db)
	userRepo := repository.NewMongoUserRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. セキュリティ・認証サービスの初期化
	sanitizer := security.NewTextSanitizer()
	verifier := auth.NewHTTPVerifier(auth.HTTPVerifierConfig{
		UserInfoURL: cfg.AuthVerifyURL,
		Timeout:     cfg.VerifyTimeout,
	})

	// 5. ドメインサービスの初期化
	donorService := donor.NewDonorService(
		donorRepo, userRepo, sanitizer, collector,
		cfg.DonorPageSizeDefault, cfg.DonorPageSizeMax,
	)
	userService := user.NewUserService(
		userRepo, donorRepo, sanitizer, collector,
		cfg.UserListLimitDefault, cfg.UserListLimitMax,
	)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitDonorReg),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Verifier:          verifier,
		RoleFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		MetricsRecorder: collector,
		MetricsHandler:  metrics.Handler(registry),

		HealthChecker: &mongoHealthChecker{client: client},

		DonorService: donorService,
		UserService:  userService,
		AdminService: userService,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
