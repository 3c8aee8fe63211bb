package config

import (
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("AUTH_VERIFY_URL", "https://idp.example.com/oauth2/userinfo")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI = %q, want %q", cfg.MongoURI, "mongodb://localhost:27017")
	}
	if cfg.AuthVerifyURL != "https://idp.example.com/oauth2/userinfo" {
		t.Errorf("AuthVerifyURL = %q, want %q", cfg.AuthVerifyURL, "https://idp.example.com/oauth2/userinfo")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MongoDatabase != "bloodlink" {
		t.Errorf("MongoDatabase = %q, want %q", cfg.MongoDatabase, "bloodlink")
	}
	if cfg.VerifyTimeout != 10*time.Second {
		t.Errorf("VerifyTimeout = %v, want %v", cfg.VerifyTimeout, 10*time.Second)
	}
	if cfg.DonorPageSizeDefault != 10 {
		t.Errorf("DonorPageSizeDefault = %d, want %d", cfg.DonorPageSizeDefault, 10)
	}
	if cfg.DonorPageSizeMax != 50 {
		t.Errorf("DonorPageSizeMax = %d, want %d", cfg.DonorPageSizeMax, 50)
	}
	if cfg.UserListLimitDefault != 20 {
		t.Errorf("UserListLimitDefault = %d, want %d", cfg.UserListLimitDefault, 20)
	}
	if cfg.UserListLimitMax != 100 {
		t.Errorf("UserListLimitMax = %d, want %d", cfg.UserListLimitMax, 100)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 120)
	}
	if cfg.RateLimitDonorReg != 10 {
		t.Errorf("RateLimitDonorReg = %d, want %d", cfg.RateLimitDonorReg, 10)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
}

func TestLoad_MissingRequiredVars_ReturnsError(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("AUTH_VERIFY_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required vars, got nil")
	}
}

func TestLoad_OverrideOptionalVars(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("MONGO_DATABASE", "bloodlink_test")
	t.Setenv("DONOR_PAGE_SIZE_MAX", "25")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AUTH_VERIFY_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MongoDatabase != "bloodlink_test" {
		t.Errorf("MongoDatabase = %q, want %q", cfg.MongoDatabase, "bloodlink_test")
	}
	if cfg.DonorPageSizeMax != 25 {
		t.Errorf("DonorPageSizeMax = %d, want %d", cfg.DonorPageSizeMax, 25)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
	if cfg.VerifyTimeout != 3*time.Second {
		t.Errorf("VerifyTimeout = %v, want %v", cfg.VerifyTimeout, 3*time.Second)
	}
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("RATE_LIMIT_GENERAL", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want default %d", cfg.RateLimitGeneral, 120)
	}
}
