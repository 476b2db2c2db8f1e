// Package app wires the hbnb storage engine, registry and console.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/hbnb/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/hbnb/internal/services/hbnb/console"
	"github.com/louisbranch/hbnb/internal/services/hbnb/registry"
	"github.com/louisbranch/hbnb/internal/services/hbnb/storage"
	"github.com/louisbranch/hbnb/internal/services/hbnb/storage/file"
	"github.com/louisbranch/hbnb/internal/services/hbnb/storage/sqldb"
)

const (
	// StorageFile selects the JSON document engine.
	StorageFile = "file"
	// StorageDB selects the relational engine.
	StorageDB = "db"

	defaultSQLitePath = "hbnb.db"
	defaultPGPort     = "5432"
	testEnv           = "test"
)

// Config selects and locates the storage engine.
type Config struct {
	Storage  string
	FilePath string
	Driver   string
	DSN      string
	DBHost   string
	DBPort   string
	DBUser   string
	DBPwd    string
	DBName   string
	Env      string
	Locale   string
	Logger   *log.Logger
}

// OpenEngine opens the engine named by cfg.Storage.
func OpenEngine(ctx context.Context, cfg Config) (storage.Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Storage)) {
	case "", StorageFile:
		path := cfg.FilePath
		if strings.TrimSpace(path) == "" {
			path = "file.json"
		}
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		store, err := file.Open(ctx, path, logger)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nil
	case StorageDB:
		dialect, err := sqlmigrate.ParseDialect(cfg.Driver)
		if err != nil {
			return nil, err
		}
		dsn, err := DSN(cfg, dialect)
		if err != nil {
			return nil, err
		}
		if dialect == sqlmigrate.SQLite {
			if err := ensureDir(dsn); err != nil {
				return nil, err
			}
		}
		store, err := sqldb.Open(ctx, sqldb.Options{
			Dialect: dialect,
			DSN:     dsn,
			Reset:   strings.EqualFold(strings.TrimSpace(cfg.Env), testEnv),
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", dialect, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Storage)
	}
}

// DSN returns the configured data source name, composing a PostgreSQL URL
// from the host settings when none is given.
func DSN(cfg Config, dialect sqlmigrate.Dialect) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn, nil
	}
	if dialect != sqlmigrate.Postgres {
		return defaultSQLitePath, nil
	}
	host := strings.TrimSpace(cfg.DBHost)
	if host == "" {
		return "", errors.New("database host is required")
	}
	name := strings.TrimSpace(cfg.DBName)
	if name == "" {
		return "", errors.New("database name is required")
	}
	port := strings.TrimSpace(cfg.DBPort)
	if port == "" {
		port = defaultPGPort
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	if user := strings.TrimSpace(cfg.DBUser); user != "" {
		if cfg.DBPwd != "" {
			u.User = url.UserPassword(user, cfg.DBPwd)
		} else {
			u.User = url.User(user)
		}
	}
	return u.String(), nil
}

// Run opens the engine and serves console commands from in until quit, EOF
// or ctx is done. The registry is always closed on return.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	engine, err := OpenEngine(ctx, cfg)
	if err != nil {
		return err
	}
	reg, err := registry.New(engine, registry.WithLogger(cfg.Logger))
	if err != nil {
		_ = engine.Close()
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			log.Printf("close registry: %v", err)
		}
	}()

	opts := []console.Option{console.WithLogger(cfg.Logger)}
	if strings.TrimSpace(cfg.Locale) != "" {
		opts = append(opts, console.WithLocale(cfg.Locale))
	}
	c, err := console.New(reg, out, opts...)
	if err != nil {
		return err
	}
	if err := c.Run(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	return nil
}
