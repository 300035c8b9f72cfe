package global

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
	"github.com/Bhawani9828/slack-clone-sub001/service/storage"
	"github.com/Bhawani9828/slack-clone-sub001/tools/ids"
)

// AppConfig is the flattened runtime configuration, sourced from the
// environment with defaults good enough for a local dev boot.
type AppConfig struct {
	GatewayID string
	HTTPAddr  string
	GRPCAddr  string

	Redis storage.RedisConfig
	Mongo storage.MongoConfig

	NatsURL     string
	PushSubject string
	PushQueue   string

	FCMEndpoint  string
	FCMServerKey string

	NodeID             int64
	RingTimeout        time.Duration
	TypingIdle         time.Duration
	MaxSessionsPerUser int
}

func Load() AppConfig {
	return AppConfig{
		GatewayID: getenv("GATEWAY_ID", "chat-gw-1"),
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		GRPCAddr:  getenv("GRPC_ADDR", ":50052"),
		Redis: storage.RedisConfig{
			Addr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
			PoolSize: getenvInt("REDIS_POOL", 20),
		},
		Mongo: storage.MongoConfig{
			URI:         getenv("MONGO_URI", "mongodb://localhost:27017"),
			Database:    getenv("MONGO_DB", "slackclone"),
			Username:    os.Getenv("MONGO_USER"),
			Password:    os.Getenv("MONGO_PASSWORD"),
			MaxPoolSize: uint64(getenvInt("MONGO_POOL", 20)),
		},
		NatsURL:      os.Getenv("NATS_URL"),
		PushSubject:  getenv("PUSH_SUBJECT", "im.push.jobs"),
		PushQueue:    getenv("PUSH_QUEUE", "im-push-workers"),
		FCMEndpoint:  os.Getenv("FCM_ENDPOINT"),
		FCMServerKey: os.Getenv("FCM_SERVER_KEY"),
		NodeID:       int64(getenvInt("NODE_ID", 1)),
		RingTimeout:  getenvDur("CALL_RING_TIMEOUT", 30*time.Second),
		TypingIdle:   getenvDur("TYPING_IDLE", 7*time.Second),
		// 0 keeps multi-device; set 1 for single-session semantics.
		MaxSessionsPerUser: getenvInt("MAX_SESSIONS_PER_USER", 0),
	}
}

// ConfigIds seeds the id generator with this node's identity.
func ConfigIds(cfg AppConfig) {
	ids.SetNodeID(cfg.NodeID)
}

// ConfigRedis brings the presence mirror up. Failure degrades to a
// mirrorless boot rather than aborting.
func ConfigRedis(cfg AppConfig) bool {
	if err := storage.InitRedis(cfg.Redis); err != nil {
		logger.Warnf("redis unavailable, running without mirror: %v", err)
		return false
	}
	return true
}

// ConfigMongo brings the token store's backend up, again best effort.
func ConfigMongo(cfg AppConfig) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storage.InitMongo(ctx, cfg.Mongo); err != nil {
		logger.Warnf("mongo unavailable, token store falls back to memory: %v", err)
		return false
	}
	return true
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
