package database

import (
	"context"
	"testing"
)

func TestConnect_EmptyURI_ReturnsError(t *testing.T) {
	_, err := Connect(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty URI, got nil")
	}
}

func TestConnect_InvalidScheme_ReturnsError(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://localhost:5432/bloodlink")
	if err == nil {
		t.Fatal("expected error for non-mongodb scheme, got nil")
	}
}

func TestConnect_ValidURI_ReturnsClient(t *testing.T) {
	// mongo.Connectは実際のI/Oを行わないため、接続先が存在しなくても成功する。
	// 到達性の確認はPingの責務。
	client, err := Connect(context.Background(), "mongodb://localhost:27017")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client == nil {
		t.Fatal("expected client, got nil")
	}
}
