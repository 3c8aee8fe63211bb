// Package database はMongoDBへの接続を提供する。
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// コレクション名。donorsとusersの2コレクションのみを使用する。
const (
	DonorCollection = "donors"
	UserCollection  = "users"
)

// Connect はMongoDBクライアントを生成して接続する。
// uriにはmongodb://またはmongodb+srv://スキームの接続URLを指定する。
// 接続確認にはPingを使用すること。
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI is empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	return client, nil
}

// Ping はプライマリノードへの到達性を確認する。
// タイムアウトはctxで制御する。
func Ping(ctx context.Context, client *mongo.Client) error {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

// Disconnect はクライアントを切断する。シャットダウン時に呼び出す。
func Disconnect(client *mongo.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}
