package storage

// Redis 承载结算会话、限流窗口与支付幂等键，启动时必须可达。

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/config"
)

// InitRedis 通过 go-redis v8 连接 Redis，并做一次 Ping 验证。
func InitRedis(cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(rdb.Context()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.WithFields(log.Fields{
		"service": cfg.Service.Name,
		"addr":    cfg.Redis.Addr,
	}).Info("redis connected")
	return rdb, nil
}
