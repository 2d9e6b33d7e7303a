package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// CatalogDir is served at / so browsers can fetch list.json.
		CatalogDir string `yaml:"catalog_dir"`
		// AllowedOrigins may open the quiz socket; empty means same-origin.
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Auth struct {
		URL           string `yaml:"url"`
		RedirectDelay string `yaml:"redirect_delay"`
	} `yaml:"auth"`
	Sync struct {
		URL          string `yaml:"url"`
		Offline      bool   `yaml:"offline"`
		ProbeTimeout string `yaml:"probe_timeout"`
	} `yaml:"sync"`
	HTTP struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"http"`
	Catalog struct {
		// Source is http, postgres or minio.
		Source  string `yaml:"source"`
		BaseURL string `yaml:"base_url"`
		Minio   struct {
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			Bucket    string `yaml:"bucket"`
			Prefix    string `yaml:"prefix"`
			UseSSL    bool   `yaml:"use_ssl"`
			Region    string `yaml:"region"`
		} `yaml:"minio"`
	} `yaml:"catalog"`
	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Identity struct {
		// Backend is file, memory or redis.
		Backend   string `yaml:"backend"`
		StatePath string `yaml:"state_path"`
		TTL       string `yaml:"ttl"`
	} `yaml:"identity"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	RateLimit struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Load reads YAML config from path, then applies .env and environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Auth.URL, "CIVIL_QUIZ_AUTH_URL")
	setString(&cfg.Sync.URL, "CIVIL_QUIZ_SCORE_URL")
	setString(&cfg.Catalog.BaseURL, "CIVIL_QUIZ_CATALOG_URL")
	setString(&cfg.Catalog.Source, "CIVIL_QUIZ_CATALOG_SOURCE")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Postgres.URL, "DATABASE_URL")
	setString(&cfg.Catalog.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Catalog.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v, ok := os.LookupEnv("CIVIL_QUIZ_ALLOWED_ORIGINS"); ok && v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("CIVIL_QUIZ_OFFLINE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Sync.Offline = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "http"
	}
	if cfg.Identity.Backend == "" {
		cfg.Identity.Backend = "file"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.RateLimit.PerSecond <= 0 {
		cfg.RateLimit.PerSecond = 10
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 20
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
