package helper

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds all settings needed to open a PostgreSQL
// connection pool.
type DatabaseConfiguration struct {
	Host           string
	Port           string
	Database       string
	Username       string
	Password       string
	Schema         string
	SSLMode        string
	MaxConnections int
}

// NewDatabaseConfiguration reads the database configuration from the
// environment. DB_HOST, DB_PORT, DB_DATABASE, DB_USERNAME and
// DB_PASSWORD are required; DB_SCHEMA and DB_SSL_MODE are optional.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	config := &DatabaseConfiguration{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: os.Getenv("DB_DATABASE"),
		Username: os.Getenv("DB_USERNAME"),
		Password: os.Getenv("DB_PASSWORD"),
		Schema:   os.Getenv("DB_SCHEMA"),
		SSLMode:  os.Getenv("DB_SSL_MODE"),
	}

	if config.Host == "" || config.Port == "" || config.Database == "" || config.Username == "" || config.Password == "" {
		return nil, errors.New("DB_HOST, DB_PORT, DB_DATABASE, DB_USERNAME and DB_PASSWORD must be set")
	}
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config, nil
}

// NewDatabaseConfigurationFromURL parses a postgres:// connection URL
// (the DATABASE_URL convention) into a DatabaseConfiguration.
func NewDatabaseConfigurationFromURL(rawURL string) (*DatabaseConfiguration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewError("parse database url", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, NewError("parse database url", fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	config := &DatabaseConfiguration{
		Host:     u.Hostname(),
		Port:     u.Port(),
		Database: strings.TrimPrefix(u.Path, "/"),
		Schema:   "public",
		SSLMode:  "disable",
	}
	if u.User != nil {
		config.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			config.Password = pw
		}
	}
	if config.Port == "" {
		config.Port = "5432"
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		config.SSLMode = mode
	}

	return config, nil
}

// ConnectionString builds the lib/pq DSN for the configuration.
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s search_path=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.Schema, c.SSLMode,
	)
}

// Database wraps the shared connection pool together with its logger.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens and pings a connection pool for the given
// configuration. It panics when the database is unreachable, mirroring
// the fail-fast startup of the service.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		panic(fmt.Sprintf("error opening database %v: %v", name, err))
	}

	maxConnections := config.MaxConnections
	if maxConnections <= 0 {
		maxConnections = 10
	}
	db.SetMaxOpenConns(maxConnections)
	db.SetMaxIdleConns(maxConnections / 2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		panic(fmt.Sprintf("error pinging database %v: %v", name, err))
	}

	logger.Info("connected to database", "name", name, "host", config.Host, "port", config.Port)

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	if d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
