package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/block-integration-api/tutorial-webchat/config"
	"github.com/go-redis/redis/v8"
)

// ReceiptCacheClient backs the redis receipt store.
var ReceiptCacheClient *redis.Client

// NewRedisClient builds a client for one logical database and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis db %d at %s: %w", db, addr, err)
	}
	return client, nil
}

// InitReceiptCache connects the receipt client from AppConfig.
func InitReceiptCache(ctx context.Context) error {
	client, err := NewRedisClient(ctx,
		config.AppConfig.RedisAddr,
		config.AppConfig.RedisPassword,
		config.AppConfig.RedisReceiptDB,
	)
	if err != nil {
		return err
	}
	ReceiptCacheClient = client
	return nil
}
