package elastiq

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ConnectionConfig describes one named Elasticsearch connection.
type ConnectionConfig struct {
	Addresses []string
	Username  string
	Password  string
	CloudID   string
	APIKey    string
}

// CacheConfig holds the global cache defaults. Per-builder overrides fall
// back to these values at execute time.
type CacheConfig struct {
	Prefix   string
	TTL      time.Duration
	StaleTTL time.Duration
	Driver   string
}

// Config is the explicit configuration injected into a connection Manager.
type Config struct {
	DefaultConnection string
	Connections       map[string]ConnectionConfig
	Cache             CacheConfig
}

// LoadConfig builds a Config from the environment. A .env file is loaded
// when present. Recognized variables:
//
//	ELASTICSEARCH_URL        comma-separated addresses (default http://localhost:9200)
//	ELASTICSEARCH_USERNAME   basic auth username
//	ELASTICSEARCH_PASSWORD   basic auth password
//	ELASTICSEARCH_CLOUD_ID   Elastic Cloud deployment ID
//	ELASTICSEARCH_API_KEY    API key authentication
//	ELASTIQ_CONNECTION       default connection name (default "default")
//	ELASTIQ_CACHE_PREFIX     cache key prefix (default "elastiq")
//	ELASTIQ_CACHE_TTL        fresh TTL, Go duration syntax (default 5m)
//	ELASTIQ_CACHE_STALE_TTL  stale window, Go duration syntax (default 0: disabled)
//	ELASTIQ_CACHE_DRIVER     cache store name (default "redis")
func LoadConfig() *Config {
	_ = godotenv.Load()

	name := getEnvOrDefault("ELASTIQ_CONNECTION", "default")

	conn := ConnectionConfig{
		Addresses: splitAddresses(getEnvOrDefault("ELASTICSEARCH_URL", "http://localhost:9200")),
		Username:  os.Getenv("ELASTICSEARCH_USERNAME"),
		Password:  os.Getenv("ELASTICSEARCH_PASSWORD"),
		CloudID:   os.Getenv("ELASTICSEARCH_CLOUD_ID"),
		APIKey:    os.Getenv("ELASTICSEARCH_API_KEY"),
	}

	return &Config{
		DefaultConnection: name,
		Connections: map[string]ConnectionConfig{
			name: conn,
		},
		Cache: CacheConfig{
			Prefix:   getEnvOrDefault("ELASTIQ_CACHE_PREFIX", DefaultCachePrefix),
			TTL:      getEnvDuration("ELASTIQ_CACHE_TTL", DefaultCacheTTL),
			StaleTTL: getEnvDuration("ELASTIQ_CACHE_STALE_TTL", 0),
			Driver:   getEnvOrDefault("ELASTIQ_CACHE_DRIVER", "redis"),
		},
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitAddresses(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
