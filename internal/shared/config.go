package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	ProviderBase  string
	ProviderKeys  []string
	ProviderRPS   int
	AliasCfgURL   string
	EmbedBase     string
	EmbedKey      string
	QueryCacheTTL time.Duration
	AliasTTL      time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/ratepulse?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		ProviderBase:  env("PROVIDER_BASE_URL", "https://rates-api.example.com"),
		ProviderKeys:  splitKeys(env("PROVIDER_API_KEYS", "")),
		ProviderRPS:   atoi("PROVIDER_RPS", 5),
		AliasCfgURL:   env("ALIAS_CONFIG_URL", ""),
		EmbedBase:     env("EMBED_BASE_URL", ""),
		EmbedKey:      env("EMBED_API_KEY", ""),
		QueryCacheTTL: time.Duration(atoi("QUERY_CACHE_TTL_SECONDS", 300)) * time.Second,
		AliasTTL:      time.Duration(atoi("ALIAS_TTL_SECONDS", 900)) * time.Second,
	}
	if len(c.ProviderKeys) == 0 {
		log.Warn().Msg("PROVIDER_API_KEYS is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitKeys(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
