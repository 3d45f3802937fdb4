package database

import (
	"context"
	"fmt"
	"time"

	"assessflow_backend/internal/config"
	"assessflow_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 缓存只存测评结构快照，读多写少，连接池不需要太大
const (
	redisPoolSize     = 20
	redisMinIdleConns = 5
	redisPingTimeout  = 3 * time.Second
)

// InitRedis 建立缓存连接并探活。调用方在失败时可以降级为无缓存运行。
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     redisPoolSize,
		MinIdleConns: redisMinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("ping redis %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Log.Info("Redis 连接成功", zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)))
	return rdb, nil
}
