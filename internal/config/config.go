package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/heaterlabs/warming-engine/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds config envs and values used across the warming
// engine. Only this struct must be used to hold any configuration
// values, no direct access to env, ini or any other config source
// should be made
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"warming_engine"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel []string `env:"LOG_LEVEL"`

	EvolutionURL     string        `env:"EVOLUTION_URL"`
	EvolutionAPIKey  string        `env:"EVOLUTION_API_KEY"`
	EvolutionTimeout time.Duration `env:"EVOLUTION_TIMEOUT" default:"10s"`

	WarmingTickInterval time.Duration `env:"WARMING_TICK_INTERVAL" default:"1m"`
	WarmingLockTTL      time.Duration `env:"WARMING_LOCK_TTL" default:"2m"`

	StatusQueueName          string        `env:"STATUS_QUEUE_NAME" default:"connection-updates"`
	StatusQueueConsumerGroup string        `env:"STATUS_QUEUE_CONSUMER_GROUP" default:"status-workers"`
	StatusQueueConsumerName  string        `env:"STATUS_QUEUE_CONSUMER_NAME"`
	StatusQueueMaxRetries    int           `env:"STATUS_QUEUE_MAX_RETRIES" default:"3"`
	StatusQueueVisibility    time.Duration `env:"STATUS_QUEUE_VISIBILITY_TIMEOUT" default:"30s"`
	StatusQueuePollInterval  time.Duration `env:"STATUS_QUEUE_POLL_INTERVAL" default:"1s"`
	StatusQueueBatchSize     int64         `env:"STATUS_QUEUE_BATCH_SIZE" default:"10"`
	StatusQueueMaxLen        int64         `env:"STATUS_QUEUE_MAX_LEN"`
	StatusQueueEnableDLQ     bool          `env:"STATUS_QUEUE_ENABLE_DLQ"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
