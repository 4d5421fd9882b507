package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB/Redis connection, etc.), security settings
// - default: Values common across all environments (TTLs, queue sizes, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	CORS    CORSConfig
	Log     LogConfig
	JWT     JWTConfig
	Cache   CacheConfig
	Seckill SeckillConfig
	Kafka   KafkaConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	PoolSize int    `envconfig:"REDIS_POOL_SIZE" default:"100"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// CacheConfig drives the cache-aside reader.
//
// NullTTL bounds how long a known-absent key suppresses source lookups.
// LockTTL is the rebuild lock expiry; a rebuild outliving it may run
// concurrently with the next winner, which the double-check absorbs.
type CacheConfig struct {
	NullTTL        time.Duration `envconfig:"CACHE_NULL_TTL" default:"2m"`
	ShopTTL        time.Duration `envconfig:"CACHE_SHOP_TTL" default:"30m"`
	LockTTL        time.Duration `envconfig:"CACHE_LOCK_TTL" default:"10s"`
	RetryDelay     time.Duration `envconfig:"CACHE_RETRY_DELAY" default:"50ms"`
	LogicalHorizon time.Duration `envconfig:"CACHE_LOGICAL_HORIZON" default:"20m"`
	RebuildWorkers int64         `envconfig:"CACHE_REBUILD_WORKERS" default:"8"`
}

type SeckillConfig struct {
	Transport    string        `envconfig:"SECKILL_TRANSPORT" default:"memory"` // memory|kafka
	QueueSize    int           `envconfig:"SECKILL_QUEUE_SIZE" default:"1048576"`
	OrderLockTTL time.Duration `envconfig:"SECKILL_ORDER_LOCK_TTL" default:"5s"`
	MaxRetries   int           `envconfig:"SECKILL_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `envconfig:"SECKILL_RETRY_BACKOFF" default:"100ms"`
	DeadLetterKey string       `envconfig:"SECKILL_DEAD_LETTER_KEY" default:"seckill:dead"`
}

type KafkaConfig struct {
	Brokers  []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic    string   `envconfig:"KAFKA_TOPIC" default:"seckill.orders"`
	GroupID  string   `envconfig:"KAFKA_GROUP_ID" default:"seckill-materializer"`
	DLQTopic string   `envconfig:"KAFKA_DLQ_TOPIC" default:"seckill.orders.dlq"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Addr:     "localhost:16379",
			PoolSize: 10,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Cache: CacheConfig{
			NullTTL:        2 * time.Minute,
			ShopTTL:        30 * time.Minute,
			LockTTL:        10 * time.Second,
			RetryDelay:     time.Millisecond,
			LogicalHorizon: 20 * time.Minute,
			RebuildWorkers: 4,
		},
		Seckill: SeckillConfig{
			Transport:     "memory",
			QueueSize:     1024,
			OrderLockTTL:  5 * time.Second,
			MaxRetries:    3,
			RetryBackoff:  time.Millisecond,
			DeadLetterKey: "seckill:dead",
		},
	}
}
