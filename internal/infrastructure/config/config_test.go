package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"INVENTORY_APP_NAME":                     os.Getenv("INVENTORY_APP_NAME"),
		"INVENTORY_APP_ENV":                      os.Getenv("INVENTORY_APP_ENV"),
		"INVENTORY_APP_PORT":                     os.Getenv("INVENTORY_APP_PORT"),
		"INVENTORY_DATABASE_HOST":                os.Getenv("INVENTORY_DATABASE_HOST"),
		"INVENTORY_DATABASE_PASSWORD":            os.Getenv("INVENTORY_DATABASE_PASSWORD"),
		"INVENTORY_DATABASE_SSLMODE":             os.Getenv("INVENTORY_DATABASE_SSLMODE"),
		"INVENTORY_DATABASE_MAX_OPEN_CONNS":      os.Getenv("INVENTORY_DATABASE_MAX_OPEN_CONNS"),
		"INVENTORY_DATABASE_MAX_IDLE_CONNS":      os.Getenv("INVENTORY_DATABASE_MAX_IDLE_CONNS"),
		"INVENTORY_ENGINE_RETRY_MAX_ATTEMPTS":    os.Getenv("INVENTORY_ENGINE_RETRY_MAX_ATTEMPTS"),
		"INVENTORY_INVENTORY_FANOUT_CREATE":      os.Getenv("INVENTORY_INVENTORY_FANOUT_CREATE"),
		"INVENTORY_KAFKA_TOPIC_STOCK_DECREASED":  os.Getenv("INVENTORY_KAFKA_TOPIC_STOCK_DECREASED"),
		"INVENTORY_INVENTORY_DEFAULT_LOCATION":   os.Getenv("INVENTORY_INVENTORY_DEFAULT_LOCATION"),
		"INVENTORY_REDIS_ENABLED":                os.Getenv("INVENTORY_REDIS_ENABLED"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads defaults when nothing is set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "inventory-service", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "inventory", cfg.Database.DBName)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "inventory-service-group", cfg.Kafka.GroupID)
		assert.Equal(t, int32(10), cfg.Inventory.DefaultSafetyFloor)
		assert.Equal(t, "A-1-1", cfg.Inventory.DefaultLocation)
		assert.False(t, cfg.Inventory.FanoutCreate)
		assert.Equal(t, 3, cfg.Engine.RetryMaxAttempts)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("environment variables override defaults", func(t *testing.T) {
		clearEnv()
		os.Setenv("INVENTORY_APP_PORT", "9000")
		os.Setenv("INVENTORY_DATABASE_HOST", "db.internal")
		os.Setenv("INVENTORY_ENGINE_RETRY_MAX_ATTEMPTS", "7")
		os.Setenv("INVENTORY_KAFKA_TOPIC_STOCK_DECREASED", "stock-decreased-v2")
		os.Setenv("INVENTORY_INVENTORY_DEFAULT_LOCATION", "B-2-3")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 7, cfg.Engine.RetryMaxAttempts)
		assert.Equal(t, "stock-decreased-v2", cfg.Kafka.Topics.StockDecreased)
		assert.Equal(t, "B-2-3", cfg.Inventory.DefaultLocation)
	})

	t.Run("idle connections cannot exceed open connections", func(t *testing.T) {
		clearEnv()
		os.Setenv("INVENTORY_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("INVENTORY_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})

	t.Run("fanout needs a hub catalogue", func(t *testing.T) {
		clearEnv()
		os.Setenv("INVENTORY_INVENTORY_FANOUT_CREATE", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "available_hubs")
	})

	t.Run("production requires a password and TLS", func(t *testing.T) {
		clearEnv()
		os.Setenv("INVENTORY_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password")

		os.Setenv("INVENTORY_DATABASE_PASSWORD", "secret")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")

		os.Setenv("INVENTORY_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "inventory",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestTopicConfig_TopicFor(t *testing.T) {
	topics := TopicConfig{
		InventoryCreated:   "inventory-created",
		InventoryLowStock:  "inventory-low-stock",
		InventoryRestocked: "inventory-restocked",
		InventoryReserved:  "inventory-reserved",
		StockDecreased:     "stock-decreased",
		StockRestored:      "stock-restored",
	}

	assert.Equal(t, "inventory-created", topics.TopicFor("inventory-created"))
	assert.Equal(t, "stock-restored", topics.TopicFor("stock-restored"))
	assert.Empty(t, topics.TopicFor("product-created"), "inbound types have no outbound topic")
	assert.Empty(t, topics.TopicFor("unknown"))
}
