// Package console parses hbnb console flags and launches the interpreter.
package console

import (
	"context"
	"flag"
	"io"
	"log"

	entrypoint "github.com/louisbranch/hbnb/internal/platform/cmd"
	"github.com/louisbranch/hbnb/internal/services/hbnb/app"
)

// Config holds console command configuration.
type Config struct {
	Storage  string `env:"HBNB_TYPE_STORAGE" envDefault:"file"`
	FilePath string `env:"HBNB_FILE_PATH" envDefault:"file.json"`
	Driver   string `env:"HBNB_DB_DRIVER" envDefault:"sqlite"`
	// DSN falls back to hbnb.db for sqlite or to the HBNB_DB_* settings
	// for postgres.
	DSN    string `env:"HBNB_DB_DSN"`
	DBHost string `env:"HBNB_DB_HOST"`
	DBPort string `env:"HBNB_DB_PORT"`
	DBUser string `env:"HBNB_DB_USER"`
	DBPwd  string `env:"HBNB_DB_PWD"`
	DBName string `env:"HBNB_DB_NAME"`
	Env    string `env:"HBNB_ENV"`
	Locale string `env:"HBNB_LOCALE" envDefault:"en-US"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage engine: file or db")
	fs.StringVar(&cfg.FilePath, "file", cfg.FilePath, "JSON file used by the file engine")
	fs.StringVar(&cfg.Driver, "driver", cfg.Driver, "SQL driver used by the db engine: sqlite or postgres")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Data source name used by the db engine")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves console commands read from in until quit or EOF.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceConsole, func(ctx context.Context) error {
		return app.Run(ctx, cfg.app(log.Default()), in, out)
	})
}

func (c Config) app(logger *log.Logger) app.Config {
	return app.Config{
		Storage:  c.Storage,
		FilePath: c.FilePath,
		Driver:   c.Driver,
		DSN:      c.DSN,
		DBHost:   c.DBHost,
		DBPort:   c.DBPort,
		DBUser:   c.DBUser,
		DBPwd:    c.DBPwd,
		DBName:   c.DBName,
		Env:      c.Env,
		Locale:   c.Locale,
		Logger:   logger,
	}
}
