package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/heaterlabs/warming-engine/internal/config"
	"github.com/heaterlabs/warming-engine/internal/gateway"
	"github.com/heaterlabs/warming-engine/internal/handlers"
	"github.com/heaterlabs/warming-engine/internal/queue"
	"github.com/heaterlabs/warming-engine/internal/repository"
	"github.com/heaterlabs/warming-engine/internal/services"
	xhttp "github.com/heaterlabs/warming-engine/pkg/http"
	"github.com/heaterlabs/warming-engine/pkg/logger"
	"github.com/heaterlabs/warming-engine/pkg/pg"
	"github.com/heaterlabs/warming-engine/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	statusQueue, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().StatusQueueName,
		ConsumerGroup:     config.Get().StatusQueueConsumerGroup,
		ConsumerName:      config.Get().StatusQueueConsumerName,
		MaxRetries:        config.Get().StatusQueueMaxRetries,
		VisibilityTimeout: config.Get().StatusQueueVisibility,
		PollInterval:      config.Get().StatusQueuePollInterval,
		BatchSize:         config.Get().StatusQueueBatchSize,
		MaxLen:            config.Get().StatusQueueMaxLen,
		EnableDLQ:         config.Get().StatusQueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating status queue", "error", err)
		return
	}

	gatewayClient, err := gateway.NewClient(&gateway.Config{
		BaseURL: config.Get().EvolutionURL,
		APIKey:  config.Get().EvolutionAPIKey,
		Timeout: config.Get().EvolutionTimeout,
	})
	if err != nil {
		logger.Error("failed to create gateway client", "error", err)
		return
	}

	instanceRepo := repository.NewInstanceRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// services
	instanceService := services.NewInstanceService(instanceRepo, sessionRepo, messageRepo, gatewayClient)
	healthService := services.NewHealthService()

	// v1 handlers
	instanceHandler := handlers.NewInstanceHandler(instanceService)
	healthHandler := handlers.NewHealthHandler(healthService)
	webhookHandler := handlers.NewWebhookHandler(statusQueue)

	g := s.Router.Group("/api/v1")
	handlers.RegisterInstanceRoutes(g, instanceHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	w := s.Router.Group("/webhooks")
	handlers.RegisterWebhookRoutes(w, webhookHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
