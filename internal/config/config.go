// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	MongoURI      string
	MongoDatabase string

	// Identity Provider
	// AuthVerifyURL はベアラートークン検証用のuserinfoエンドポイント。
	AuthVerifyURL string
	VerifyTimeout time.Duration

	// Pagination
	DonorPageSizeDefault int
	DonorPageSizeMax     int
	UserListLimitDefault int
	UserListLimitMax     int

	// Rate Limit（req/min/caller）
	RateLimitGeneral  int
	RateLimitDonorReg int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（未存在は無視）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envはローカル開発用。本番は環境変数を直接設定する。
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.MongoURI = os.Getenv("MONGO_URI")
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}

	cfg.AuthVerifyURL = os.Getenv("AUTH_VERIFY_URL")
	if cfg.AuthVerifyURL == "" {
		missing = append(missing, "AUTH_VERIFY_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MongoDatabase = getEnvString("MONGO_DATABASE", "bloodlink")
	cfg.VerifyTimeout = getEnvDuration("AUTH_VERIFY_TIMEOUT", 10*time.Second)
	cfg.DonorPageSizeDefault = getEnvInt("DONOR_PAGE_SIZE_DEFAULT", 10)
	cfg.DonorPageSizeMax = getEnvInt("DONOR_PAGE_SIZE_MAX", 50)
	cfg.UserListLimitDefault = getEnvInt("USER_LIST_LIMIT_DEFAULT", 20)
	cfg.UserListLimitMax = getEnvInt("USER_LIST_LIMIT_MAX", 100)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitDonorReg = getEnvInt("RATE_LIMIT_DONOR_REG", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
