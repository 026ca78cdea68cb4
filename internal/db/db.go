package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config captures the connection parameters for a MySQL instance.
type Config struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
	Params   string
}

// FromEnv populates a Config using sensible defaults that can be overridden via environment variables.
func FromEnv() Config {
	cfg := Config{
		User:     getEnv("DB_USER", "user"),
		Password: getEnv("DB_PASSWORD", "password"),
		Host:     getEnv("DB_HOST", "mysql"),
		Port:     getEnv("DB_PORT", "3306"),
		Database: getEnv("DB_NAME", "retail_db"),
		Params:   getEnv("DB_PARAMS", "charset=utf8mb4&parseTime=True&loc=Local"),
	}
	return cfg
}

// DSN renders the go-sql-driver data source name for cfg.
func (cfg Config) DSN() string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)
	if cfg.Params != "" {
		dsn += "?" + cfg.Params
	}
	return dsn
}

// Open returns a gorm DB holding a single MySQL session.
func Open(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	gdb, err := gorm.Open(mysql.Open(cfg.DSN()), gormCfg)
	if err != nil {
		if gdb != nil {
			if sqlDB, dbErr := gdb.DB(); dbErr == nil {
				sqlDB.Close()
			}
		}
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	// One session per request: every statement must land on the same connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return gdb, nil
}

// Conn is a request-scoped database session. Release it with Close.
type Conn struct {
	*gorm.DB
	sqlDB *sql.DB
}

// Wrap turns an open gorm DB into a Conn. Closing the Conn closes gdb's pool.
func Wrap(gdb *gorm.DB) (*Conn, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	return &Conn{DB: gdb, sqlDB: sqlDB}, nil
}

// Close releases the session. Errors are logged, never returned.
func (c *Conn) Close() {
	if c == nil || c.sqlDB == nil {
		return
	}
	if err := c.sqlDB.Close(); err != nil {
		log.Printf("error closing database session: %v", err)
	}
}

// Provider opens one session per call using static configuration.
type Provider struct {
	cfg  Config
	open func(Config) (*gorm.DB, error)
}

// NewProvider returns a Provider that dials MySQL with cfg.
func NewProvider(cfg Config) *Provider {
	return &Provider{cfg: cfg, open: Open}
}

// Connect opens a session. It returns nil, after logging the cause, when the
// database cannot be reached.
func (p *Provider) Connect(ctx context.Context) *Conn {
	gdb, err := p.open(p.cfg)
	if err != nil {
		log.Printf("Error connecting to MySQL at %s:%s: %v", p.cfg.Host, p.cfg.Port, err)
		return nil
	}
	conn, err := Wrap(gdb.WithContext(ctx))
	if err != nil {
		log.Printf("Error acquiring MySQL session: %v", err)
		return nil
	}
	return conn
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
