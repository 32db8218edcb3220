package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Tracker   DatabaseConfig
	Directory DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Movements MovementsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MovementsConfig tunes the movement workflow endpoints.
type MovementsConfig struct {
	ListLimit       int
	BlockDuplicates bool
	CustodyRoles    []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Tracker = DatabaseConfig{
		Host:         v.GetString("TRACKER_DB_HOST"),
		Port:         v.GetInt("TRACKER_DB_PORT"),
		User:         v.GetString("TRACKER_DB_USER"),
		Password:     v.GetString("TRACKER_DB_PASSWORD"),
		Name:         v.GetString("TRACKER_DB_NAME"),
		SSLMode:      v.GetString("TRACKER_DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("TRACKER_DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("TRACKER_DB_MAX_IDLE_CONNS"),
	}

	cfg.Directory = DatabaseConfig{
		Host:         v.GetString("DIRECTORY_DB_HOST"),
		Port:         v.GetInt("DIRECTORY_DB_PORT"),
		User:         v.GetString("DIRECTORY_DB_USER"),
		Password:     v.GetString("DIRECTORY_DB_PASSWORD"),
		Name:         v.GetString("DIRECTORY_DB_NAME"),
		SSLMode:      v.GetString("DIRECTORY_DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DIRECTORY_DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DIRECTORY_DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Movements = MovementsConfig{
		ListLimit:       v.GetInt("MOVEMENTS_LIST_LIMIT"),
		BlockDuplicates: v.GetBool("MOVEMENTS_BLOCK_DUPLICATES"),
		CustodyRoles:    splitAndTrim(v.GetString("MOVEMENTS_CUSTODY_ROLES")),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("TRACKER_DB_HOST", "localhost")
	v.SetDefault("TRACKER_DB_PORT", 5432)
	v.SetDefault("TRACKER_DB_USER", "postgres")
	v.SetDefault("TRACKER_DB_PASSWORD", "postgres")
	v.SetDefault("TRACKER_DB_NAME", "filetracker")
	v.SetDefault("TRACKER_DB_SSL_MODE", "disable")
	v.SetDefault("TRACKER_DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("TRACKER_DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("DIRECTORY_DB_HOST", "localhost")
	v.SetDefault("DIRECTORY_DB_PORT", 5432)
	v.SetDefault("DIRECTORY_DB_USER", "postgres")
	v.SetDefault("DIRECTORY_DB_PASSWORD", "postgres")
	v.SetDefault("DIRECTORY_DB_NAME", "infracit_sharedb")
	v.SetDefault("DIRECTORY_DB_SSL_MODE", "disable")
	v.SetDefault("DIRECTORY_DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DIRECTORY_DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "filetracker-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MOVEMENTS_LIST_LIMIT", 100)
	v.SetDefault("MOVEMENTS_BLOCK_DUPLICATES", true)
	v.SetDefault("MOVEMENTS_CUSTODY_ROLES", "hr")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
