package storage

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

var (
	redisOnce sync.Once
	rdb       *redis.Client
)

// RedisConfig configures the shared redis client.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// InitRedis initializes the shared client (singleton, first call wins).
func InitRedis(c RedisConfig) error {
	var initErr error
	redisOnce.Do(func() {
		client := redis.NewClient(&redis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
			PoolSize: c.PoolSize,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			initErr = errs.Wrap(err, "redis ping")
			return
		}
		rdb = client
	})
	return initErr
}

// GetRedis returns the shared client; nil until InitRedis succeeds.
func GetRedis() *redis.Client { return rdb }

// CloseRedis closes the shared client.
func CloseRedis() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}
