// Package config loads service configuration from the environment.
//
// All settings use the REGSYNC_ prefix and carry development-friendly
// defaults so the binary starts without any configuration.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBatchSize caps how many records are processed concurrently inside
// one record type. It is the single tuning knob protecting the remote
// source's rate limits.
const DefaultBatchSize = 50

// Config captures everything the server and import pipeline need at startup.
type Config struct {
	Addr string

	MongoURI      string
	MongoDatabase string

	RedisURL string

	SourceBaseURL string
	SourceAPIKey  string

	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey string

	BatchSize      int
	EnrichCacheTTL time.Duration
}

// Load builds a Config from environment variables.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("REGSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "regsync")
	v.SetDefault("redis_url", "")
	v.SetDefault("source_base_url", "")
	v.SetDefault("source_api_key", "")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "regsync.import-runs")
	// Development default, must be overridden in production.
	v.SetDefault("jwt_signing_key", "dev-secret-key-change-in-production")
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("enrich_cache_ttl", 5*time.Minute)

	cfg := Config{
		Addr:           v.GetString("addr"),
		MongoURI:       v.GetString("mongo_uri"),
		MongoDatabase:  v.GetString("mongo_database"),
		RedisURL:       v.GetString("redis_url"),
		SourceBaseURL:  v.GetString("source_base_url"),
		SourceAPIKey:   v.GetString("source_api_key"),
		KafkaTopic:     v.GetString("kafka_topic"),
		JWTSigningKey:  v.GetString("jwt_signing_key"),
		BatchSize:      v.GetInt("batch_size"),
		EnrichCacheTTL: v.GetDuration("enrich_cache_ttl"),
	}
	if brokers := v.GetString("kafka_brokers"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return cfg
}
