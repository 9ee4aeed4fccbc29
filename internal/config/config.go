// Package config loads process configuration from a .env file plus
// environment variables, grounded on aliskhannn-asma-ul-husna-bot's
// internal/config.Load (godotenv.Load followed by a viper.Unmarshal),
// adapted here to read straight from the environment since this service
// has no YAML config file of its own.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/vocabhat/pkg/vocab"
)

// ErrMissingEnvironmentVariables is returned when a required variable is
// unset, the way asma-ul-husna-bot refuses to start without its token.
var ErrMissingEnvironmentVariables = errors.New("config: missing required environment variables")

// Config is the process-wide configuration: a listen address (ServerAddr,
// which cmd/server reads into Config but opens no listener on), how the
// process reaches its database, the logging mode, and the tunable vocab.Config
// thresholds that drive the scheduler and placement engine.
type Config struct {
	Env        string
	ServerAddr string
	DB         DB
	Vocab      vocab.Config
}

// DB mirrors asma-ul-husna-bot's config.DB, generalized to also accept
// "sqlite3" for local dev so cmd/server can run without a Postgres
// instance on hand.
type DB struct {
	Driver            string
	User              string
	Password          string
	Host              string
	Port              string
	Name              string
	SSLMode           string
	MaxConnections    int
	ConnectionTimeout time.Duration
	SQLitePath        string // used only when Driver == "sqlite3"
}

// DSN returns the connection string for sqlx.ConnectContext.
func (d DB) DSN() string {
	if d.Driver == "sqlite3" {
		return d.SQLitePath
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d&pool_max_conn_lifetime=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode, d.MaxConnections, d.ConnectionTimeout.String(),
	)
}

// Load reads .env (if present, silently ignored otherwise since production
// deploys set real environment variables instead of shipping a dotfile),
// binds viper to the environment, and assembles Config. Required variables
// absent from the environment trigger ErrMissingEnvironmentVariables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNECTIONS", 10)
	v.SetDefault("DB_CONNECTION_TIMEOUT", "5s")
	v.SetDefault("DB_SQLITE_PATH", "data/vocabhat.db")

	driver := v.GetString("DB_DRIVER")
	if driver == "postgres" {
		user := v.GetString("DB_USER")
		password := v.GetString("DB_PASSWORD")
		name := v.GetString("DB_NAME")
		if user == "" || password == "" || name == "" {
			return nil, ErrMissingEnvironmentVariables
		}
	}

	timeout, err := time.ParseDuration(v.GetString("DB_CONNECTION_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("config: parsing DB_CONNECTION_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Env:        v.GetString("ENV"),
		ServerAddr: v.GetString("SERVER_ADDR"),
		DB: DB{
			Driver:            driver,
			User:              v.GetString("DB_USER"),
			Password:          v.GetString("DB_PASSWORD"),
			Host:              v.GetString("DB_HOST"),
			Port:              v.GetString("DB_PORT"),
			Name:              v.GetString("DB_NAME"),
			SSLMode:           v.GetString("DB_SSL_MODE"),
			MaxConnections:    v.GetInt("DB_MAX_CONNECTIONS"),
			ConnectionTimeout: timeout,
			SQLitePath:        v.GetString("DB_SQLITE_PATH"),
		},
		Vocab: vocabOverrides(v, vocab.DefaultConfig()),
	}
	return cfg, nil
}

// vocabOverrides applies any VOCAB_* environment overrides on top of the
// library defaults, so an operator can tune e.g. the daily goal without a
// code change.
func vocabOverrides(v *viper.Viper, defaults vocab.Config) vocab.Config {
	v.SetDefault("VOCAB_MAX_QUESTIONS", defaults.MaxQuestions)
	v.SetDefault("VOCAB_MIN_RANGE", defaults.MinRange)
	v.SetDefault("VOCAB_REGRESSION_INTERVAL", defaults.RegressionInterval)
	v.SetDefault("VOCAB_REGRESSION_FACTOR", defaults.RegressionFactor)
	v.SetDefault("VOCAB_MASTERY_THRESHOLD", defaults.MasteryThreshold)
	v.SetDefault("VOCAB_MASTERY_SEED", defaults.MasterySeed)
	v.SetDefault("VOCAB_DAILY_GOAL", defaults.DailyGoal)
	v.SetDefault("VOCAB_EF_MIN", defaults.EFMin)
	v.SetDefault("VOCAB_EF_MAX", defaults.EFMax)
	v.SetDefault("VOCAB_DEFAULT_SESSION_SIZE", defaults.DefaultSessionSize)
	v.SetDefault("VOCAB_DISTRACTOR_COUNT", defaults.DistractorCount)
	v.SetDefault("VOCAB_DISTRACTOR_BAND", defaults.DistractorBand)

	return vocab.Config{
		MaxQuestions:       v.GetInt("VOCAB_MAX_QUESTIONS"),
		MinRange:           v.GetInt("VOCAB_MIN_RANGE"),
		RegressionInterval: v.GetInt("VOCAB_REGRESSION_INTERVAL"),
		RegressionFactor:   v.GetFloat64("VOCAB_REGRESSION_FACTOR"),
		MasteryThreshold:   v.GetInt("VOCAB_MASTERY_THRESHOLD"),
		MasterySeed:        v.GetInt("VOCAB_MASTERY_SEED"),
		DailyGoal:          v.GetInt("VOCAB_DAILY_GOAL"),
		EFMin:              v.GetFloat64("VOCAB_EF_MIN"),
		EFMax:              v.GetFloat64("VOCAB_EF_MAX"),
		DefaultSessionSize: v.GetInt("VOCAB_DEFAULT_SESSION_SIZE"),
		DistractorCount:    v.GetInt("VOCAB_DISTRACTOR_COUNT"),
		DistractorBand:     v.GetInt("VOCAB_DISTRACTOR_BAND"),
	}
}
