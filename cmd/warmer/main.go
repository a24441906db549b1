package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/heaterlabs/warming-engine/internal/config"
	"github.com/heaterlabs/warming-engine/internal/gateway"
	"github.com/heaterlabs/warming-engine/internal/repository"
	"github.com/heaterlabs/warming-engine/internal/scheduler"
	"github.com/heaterlabs/warming-engine/internal/statusproc"
	"github.com/heaterlabs/warming-engine/internal/warming"
	"github.com/heaterlabs/warming-engine/pkg/logger"
	"github.com/heaterlabs/warming-engine/pkg/pg"
	"github.com/heaterlabs/warming-engine/pkg/prom"
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

	lockConfig := warming.DefaultCycleLockConfig()
	lockConfig.TTL = config.Get().WarmingLockTTL
	cycleLock := warming.NewCycleLock(redisAdap, lockConfig)

	engine := warming.NewEngine(
		instanceRepo,
		messageRepo,
		gatewayClient,
		warming.NewPeerSelector(messageRepo, nil),
		warming.NewBehavior(nil),
		warming.NewContentGenerator(nil),
		nil,
		warming.WithLocker(cycleLock),
		warming.WithSessions(sessionRepo),
	)

	warmingScheduler := scheduler.New(instanceRepo, engine, config.Get().WarmingTickInterval)

	consumer, err := statusproc.NewConsumerService(redisAdap)
	if err != nil {
		logger.Error("failed to create status consumer", "error", err)
		return
	}
	consumer.RegisterProcessor(statusproc.NewStatusUpdateProcessor(instanceRepo))

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	go func() {
		if err := consumer.Start(); err != nil {
			logger.Error("failed to start status consumer", "error", err)
		}
	}()

	warmingScheduler.Start()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		warmingScheduler.Stop()
		consumer.Stop()
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
