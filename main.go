package main

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Bhawani9828/slack-clone-sub001/global"
	"github.com/Bhawani9828/slack-clone-sub001/logger"
	mid "github.com/Bhawani9828/slack-clone-sub001/middleware"
	"github.com/Bhawani9828/slack-clone-sub001/service/call"
	"github.com/Bhawani9828/slack-clone-sub001/service/chat"
	"github.com/Bhawani9828/slack-clone-sub001/service/chat/handlers"
	"github.com/Bhawani9828/slack-clone-sub001/service/delivery"
	"github.com/Bhawani9828/slack-clone-sub001/service/presence"
	"github.com/Bhawani9828/slack-clone-sub001/service/push"
	"github.com/Bhawani9828/slack-clone-sub001/service/storage"
)

func main() {
	cfg := global.Load()
	global.ConfigIds(cfg)
	redisUp := global.ConfigRedis(cfg)
	mongoUp := global.ConfigMongo(cfg)

	// Token store: mongo when available, memory otherwise.
	var tokenStore push.TokenStore
	if mongoUp {
		store := push.NewMongoTokenStore(storage.GetMongoDB())
		tokenStore = store
	} else {
		tokenStore = push.NewMemoryTokenStore()
	}

	// Push bridge: direct FCM sends, queued through NATS when a
	// broker is configured.
	direct := push.NewDirectBridge(tokenStore, push.NewFCMSender(cfg.FCMEndpoint, cfg.FCMServerKey))
	var bridge push.Bridge = direct
	if cfg.NatsURL != "" {
		nc, err := push.Connect(cfg.NatsURL, cfg.GatewayID)
		if err != nil {
			logger.Warnf("nats unavailable, pushing inline: %v", err)
		} else {
			if _, err := push.StartWorker(nc, cfg.PushSubject, cfg.PushQueue, direct); err != nil {
				logger.Warnf("push worker subscribe: %v", err)
			} else {
				bridge = push.NewQueueBridge(nc, cfg.PushSubject)
			}
		}
	}

	reg := chat.NewRegistry(chat.RegistryConfig{MaxSessionsPerUser: cfg.MaxSessionsPerUser})
	srv := chat.NewServer(chat.Config{GatewayID: cfg.GatewayID}, reg)

	srv.Presence = presence.NewBroadcaster(srv, presence.Config{
		GatewayID: cfg.GatewayID,
		Mirror:    redisUp,
	})
	reg.SetPresenceSink(srv.Presence)

	srv.Delivery = delivery.NewPipeline(srv, bridge, delivery.Config{MirrorStream: redisUp})
	srv.Typing = delivery.NewTypingBroadcaster(srv, delivery.TypingConfig{IdleExpiry: cfg.TypingIdle})
	srv.Typing.Start()
	srv.Calls = call.NewManager(srv, srv, bridge, call.Config{RingTimeout: cfg.RingTimeout})

	handlers.RegisterAll(srv)

	// gRPC health endpoint for orchestrators.
	go func() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Errorf("grpc listen %s: %v", cfg.GRPCAddr, err)
			return
		}
		gs := grpc.NewServer()
		hs := health.NewServer()
		healthpb.RegisterHealthServer(gs, hs)
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		logger.Infof("grpc health listening on %s", cfg.GRPCAddr)
		if err := gs.Serve(lis); err != nil {
			logger.Errorf("grpc serve: %v", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/chat", srv.HandleWS)
	mid.POST(r, "/api/push/token", push.RegisterTokenHandler(tokenStore), mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/messages/read", delivery.MarkReadHandler(srv.Delivery), mid.RouteOpt{IsAuth: true})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, srv.Stats())
	})

	logger.Infof("gateway %s listening on %s", cfg.GatewayID, cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Errorf("http server: %v", err)
	}
	srv.Shutdown()
	logger.Sync()
}
