package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Port         int
	StateBackend string
	DatabaseURL  string
	SQLitePath   string
	JWTSecret    string
	LogLevel     slog.Level

	// Args holds the positional arguments left after the flags.
	Args []string
}

// LoadDotEnv loads a .env file when one is present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}
}

// Parse reads flags from args, falling back to the environment for anything
// not set on the command line.
func Parse(name string, args []string) (Config, error) {
	var cfg Config
	var logLevel string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 0, "Server port")
	fs.StringVar(&cfg.StateBackend, "backend", "", "World state backend (memory, postgres or sqlite)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "Postgres connection string")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", "", "SQLite database file")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "HS256 secret for access tokens (prefer env)")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8080
		}
	}

	if cfg.StateBackend == "" {
		cfg.StateBackend = os.Getenv("STATE_BACKEND")
	}
	if cfg.StateBackend == "" {
		cfg.StateBackend = BackendMemory
	}
	cfg.StateBackend = strings.ToLower(cfg.StateBackend)

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" && cfg.StateBackend == BackendPostgres {
		cfg.DatabaseURL = postgresURLFromEnv()
	}

	if cfg.SQLitePath == "" {
		cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "electionledger.db"
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
			return Config{}, fmt.Errorf("invalid log level %q", logLevel)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.StateBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres backend requires DATABASE_URL or POSTGRES_* variables")
		}
	default:
		return fmt.Errorf("unknown state backend %q", c.StateBackend)
	}
	return nil
}

// AuthEnabled reports whether the gateway verifies access tokens.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func postgresURLFromEnv() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	dbName := os.Getenv("POSTGRES_DB")
	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + dbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
