// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DB holds PostgreSQL settings – either set DatabaseURL directly, or the individual fields.
type DB struct {
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string
	// Debug logs every query.
	Debug bool
}

// Config holds the API server configuration.
type Config struct {
	DB

	// JWT signing secret (required in production).
	JWTSecret string

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// MySQL – used only by cmd/migrate.
	MySQLDSN string
}

// BuildConfig holds configuration for the feature build command.
type BuildConfig struct {
	DB

	Debug bool

	// FormatDir overrides the embedded record layouts.
	FormatDir string
	// DataDir holds the raw record files and receives snapshots.
	DataDir string

	Workers int
	Slots   int

	// SplitCutoff and ValidCutoff are dates (2006-01-02) or RFC 3339 times.
	SplitCutoff string
	ValidCutoff string
	// Columns is the allow-list applied to the output tables.
	Columns []string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()
	dbDefaults(v)
	v.SetDefault("PORT", ":9000")
	v.SetDefault("TLS_DOMAINS", "racefeat.app,www.racefeat.app")
	v.SetDefault("DEBUG", false)

	cfg := &Config{
		DB:         readDB(v),
		JWTSecret:  v.GetString("JWT_SECRET"),
		Debug:      v.GetBool("DEBUG"),
		Port:       v.GetString("PORT"),
		TLSDomains: splitTrimmed(v.GetString("TLS_DOMAINS")),
		MySQLDSN:   v.GetString("MYSQL_DSN"),
	}

	cfg.validate()
	return cfg
}

// LoadBuild reads the build command's settings. The database is optional
// here; it is only needed when results are persisted.
func LoadBuild() *BuildConfig {
	v := newViper()
	dbDefaults(v)
	v.SetDefault("DEBUG", false)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("WORKERS", 4)
	v.SetDefault("SLOTS", 5)

	cfg := &BuildConfig{
		DB:          readDB(v),
		Debug:       v.GetBool("DEBUG"),
		FormatDir:   v.GetString("FORMAT_DIR"),
		DataDir:     v.GetString("DATA_DIR"),
		Workers:     v.GetInt("WORKERS"),
		Slots:       v.GetInt("SLOTS"),
		SplitCutoff: v.GetString("SPLIT_CUTOFF"),
		ValidCutoff: v.GetString("VALID_CUTOFF"),
		Columns:     splitTrimmed(v.GetString("COLUMNS")),
	}

	cfg.validate()
	return cfg
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *DB) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// Configured reports whether enough is set to reach a database.
func (c *DB) Configured() bool {
	return c.DatabaseURL != "" || c.DBPass != ""
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

func (c *Config) validate() {
	if !c.Configured() {
		log.Fatal("config: DATABASE_URL or DB_PASS must be set")
	}
	if c.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET must be set")
	}
}

func (c *BuildConfig) validate() {
	if c.Workers < 1 {
		log.Fatalf("config: WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.Slots < 1 {
		log.Fatalf("config: SLOTS must be at least 1, got %d", c.Slots)
	}
}

func dbDefaults(v *viper.Viper) {
	v.SetDefault("DB_USER", "racefeat")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "racefeat")
	v.SetDefault("DB_SSLMODE", "disable")
}

func readDB(v *viper.Viper) DB {
	return DB{
		DatabaseURL: v.GetString("DATABASE_URL"),
		DBUser:      v.GetString("DB_USER"),
		DBPass:      v.GetString("DB_PASS"),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBName:      v.GetString("DB_NAME"),
		DBSSLMode:   v.GetString("DB_SSLMODE"),
		Debug:       v.GetBool("DEBUG"),
	}
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
