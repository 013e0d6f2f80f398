package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
	Engine    EngineConfig
	Outbox    OutboxConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings for the idempotency store
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// KafkaConfig holds broker, topic and consumer-group settings
type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  TopicConfig
}

// TopicConfig names the outbound and inbound topics. Each outbound
// topic corresponds to exactly one event type.
type TopicConfig struct {
	InventoryCreated   string
	InventoryLowStock  string
	InventoryRestocked string
	InventoryReserved  string
	StockDecreased     string
	StockRestored      string
	ProductCreated     string
	ProductDeleted     string
}

// InventoryConfig holds cell-creation defaults and the hub catalogue
type InventoryConfig struct {
	AvailableHubs      []string
	DefaultSafetyFloor int32
	DefaultLocation    string
	// FanoutCreate makes product-created events create a cell in every
	// available hub instead of only the event's hub. Compatibility mode;
	// single-hub creation is the intended behavior.
	FanoutCreate bool
}

// EngineConfig holds command-execution settings
type EngineConfig struct {
	// RetryMaxAttempts bounds optimistic-lock retries per command
	RetryMaxAttempts int
}

// OutboxConfig holds outbox drain-loop settings
type OutboxConfig struct {
	ProcessorEnabled bool
	BatchSize        int
	PollInterval     time.Duration
	MaxBackoff       time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with INVENTORY_ prefix (e.g., INVENTORY_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("INVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("kafka.brokers"),
			GroupID: v.GetString("kafka.group_id"),
			Topics: TopicConfig{
				InventoryCreated:   v.GetString("kafka.topic_inventory_created"),
				InventoryLowStock:  v.GetString("kafka.topic_inventory_low_stock"),
				InventoryRestocked: v.GetString("kafka.topic_inventory_restocked"),
				InventoryReserved:  v.GetString("kafka.topic_inventory_reserved"),
				StockDecreased:     v.GetString("kafka.topic_stock_decreased"),
				StockRestored:      v.GetString("kafka.topic_stock_restored"),
				ProductCreated:     v.GetString("kafka.topic_product_created"),
				ProductDeleted:     v.GetString("kafka.topic_product_deleted"),
			},
		},
		Inventory: InventoryConfig{
			AvailableHubs:      v.GetStringSlice("inventory.available_hubs"),
			DefaultSafetyFloor: v.GetInt32("inventory.default_safety_floor"),
			DefaultLocation:    v.GetString("inventory.default_location"),
			FanoutCreate:       v.GetBool("inventory.fanout_create"),
		},
		Engine: EngineConfig{
			RetryMaxAttempts: v.GetInt("engine.retry_max_attempts"),
		},
		Outbox: OutboxConfig{
			ProcessorEnabled: v.GetBool("outbox.processor_enabled"),
			BatchSize:        v.GetInt("outbox.batch_size"),
			PollInterval:     v.GetDuration("outbox.poll_interval"),
			MaxBackoff:       v.GetDuration("outbox.max_backoff"),
			CleanupEnabled:   v.GetBool("outbox.cleanup_enabled"),
			CleanupRetention: v.GetDuration("outbox.cleanup_retention"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "inventory-service"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "inventory"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "inventory-service-group"
	}
	if cfg.Kafka.Topics.InventoryCreated == "" {
		cfg.Kafka.Topics.InventoryCreated = "inventory-created"
	}
	if cfg.Kafka.Topics.InventoryLowStock == "" {
		cfg.Kafka.Topics.InventoryLowStock = "inventory-low-stock"
	}
	if cfg.Kafka.Topics.InventoryRestocked == "" {
		cfg.Kafka.Topics.InventoryRestocked = "inventory-restocked"
	}
	if cfg.Kafka.Topics.InventoryReserved == "" {
		cfg.Kafka.Topics.InventoryReserved = "inventory-reserved"
	}
	if cfg.Kafka.Topics.StockDecreased == "" {
		cfg.Kafka.Topics.StockDecreased = "stock-decreased"
	}
	if cfg.Kafka.Topics.StockRestored == "" {
		cfg.Kafka.Topics.StockRestored = "stock-restored"
	}
	if cfg.Kafka.Topics.ProductCreated == "" {
		cfg.Kafka.Topics.ProductCreated = "product-created"
	}
	if cfg.Kafka.Topics.ProductDeleted == "" {
		cfg.Kafka.Topics.ProductDeleted = "product-deleted"
	}
	if cfg.Inventory.DefaultSafetyFloor == 0 {
		cfg.Inventory.DefaultSafetyFloor = 10
	}
	if cfg.Inventory.DefaultLocation == "" {
		cfg.Inventory.DefaultLocation = "A-1-1"
	}
	if cfg.Engine.RetryMaxAttempts == 0 {
		cfg.Engine.RetryMaxAttempts = 3
	}
	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 100
	}
	if cfg.Outbox.PollInterval == 0 {
		cfg.Outbox.PollInterval = 5 * time.Second
	}
	if cfg.Outbox.MaxBackoff == 0 {
		cfg.Outbox.MaxBackoff = 5 * time.Minute
	}
	if cfg.Outbox.CleanupRetention == 0 {
		cfg.Outbox.CleanupRetention = 168 * time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Engine.RetryMaxAttempts < 1 {
		return fmt.Errorf("engine.retry_max_attempts must be at least 1")
	}
	if c.Inventory.FanoutCreate && len(c.Inventory.AvailableHubs) == 0 {
		return fmt.Errorf("inventory.available_hubs is required when inventory.fanout_create is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis connection address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TopicFor returns the topic an outbound event type is published to.
// Unknown event types return an empty topic.
func (t *TopicConfig) TopicFor(eventType string) string {
	switch eventType {
	case "inventory-created":
		return t.InventoryCreated
	case "inventory-low-stock":
		return t.InventoryLowStock
	case "inventory-restocked":
		return t.InventoryRestocked
	case "inventory-reserved":
		return t.InventoryReserved
	case "stock-decreased":
		return t.StockDecreased
	case "stock-restored":
		return t.StockRestored
	default:
		return ""
	}
}
