package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	PatientCode PatientCodeConfig
}

type AppConfig struct {
	Port            string
	Env             string
	CORSAllowOrigin string
}

type DBConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SSLMode       string
	RetryAttempts uint
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// LogConfig controls logrus output. File output is rotated by lumberjack
// and is disabled when File is empty.
type LogConfig struct {
	Level         string
	File          string
	MaxSizeMB     int
	MaxBackups    int
	MaxAgeDays    int
	CompressFiles bool
}

// PatientCodeConfig drives patient code generation and the GP lookup limiter.
type PatientCodeConfig struct {
	Bytes        int
	LookupLimit  int
	LookupWindow time.Duration
}

func LoadConfig() (*Config, error) {
	return loadConfig(viper.New(), ".env")
}

// LoadConfigFile reads settings from file instead of ./.env.
func LoadConfigFile(file string) (*Config, error) {
	if file == "" {
		return LoadConfig()
	}
	return loadConfig(viper.New(), file)
}

func loadConfig(v *viper.Viper, file string) (*Config, error) {
	v.SetConfigFile(file)
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_RETRY_ATTEMPTS", 5)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_FILE_MAX_BACKUPS", 5)
	v.SetDefault("LOG_FILE_MAX_AGE_DAYS", 28)
	v.SetDefault("PATIENT_CODE_BYTES", 3)
	v.SetDefault("LOOKUP_RATE_LIMIT", 20)
	v.SetDefault("LOOKUP_RATE_WINDOW", "1m")

	// A missing .env is fine; the environment alone may carry everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(v.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	lookupWindow, err := time.ParseDuration(v.GetString("LOOKUP_RATE_WINDOW"))
	if err != nil || lookupWindow <= 0 {
		lookupWindow = time.Minute
	}

	config := &Config{
		App: AppConfig{
			Port:            v.GetString("APP_PORT"),
			Env:             v.GetString("APP_ENV"),
			CORSAllowOrigin: v.GetString("APP_CORS_ALLOW_ORIGIN"),
		},
		DB: DBConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Name:          v.GetString("DB_NAME"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			RetryAttempts: v.GetUint("DB_RETRY_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Log: LogConfig{
			Level:         v.GetString("LOG_LEVEL"),
			File:          v.GetString("LOG_FILE"),
			MaxSizeMB:     v.GetInt("LOG_FILE_MAX_SIZE_MB"),
			MaxBackups:    v.GetInt("LOG_FILE_MAX_BACKUPS"),
			MaxAgeDays:    v.GetInt("LOG_FILE_MAX_AGE_DAYS"),
			CompressFiles: v.GetBool("LOG_FILE_COMPRESS"),
		},
		PatientCode: PatientCodeConfig{
			Bytes:        v.GetInt("PATIENT_CODE_BYTES"),
			LookupLimit:  v.GetInt("LOOKUP_RATE_LIMIT"),
			LookupWindow: lookupWindow,
		},
	}

	if config.PatientCode.Bytes < 1 {
		config.PatientCode.Bytes = 3
	}

	return config, nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
