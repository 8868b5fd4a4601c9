// Package config loads tango's settings from flags, environment variables,
// an optional YAML file and an optional .env file.
//
// Precedence, highest first:
//  1. flags set on the command line
//  2. TANGO_* environment variables (a .env file is loaded into the environment first)
//  3. the YAML file named by --config
//  4. flag defaults
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read, e.g. TANGO_LOG_LEVEL.
const EnvPrefix = "TANGO_"

// Config is the resolved application configuration.
type Config struct {
	Deck      string        `koanf:"deck" validate:"required"`
	Entry     string        `koanf:"entry" validate:"required"`
	Sheet     string        `koanf:"sheet"`
	DB        string        `koanf:"db" validate:"required"`
	Addr      string        `koanf:"addr" validate:"required,hostname_port"`
	Goal      int           `koanf:"goal" validate:"min=1"`
	Repos     string        `koanf:"repos" validate:"required"`
	Remind    time.Duration `koanf:"remind" validate:"min=0"`
	LogLevel  string        `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string        `koanf:"log_format" validate:"oneof=text json"`
	Check     bool          `koanf:"check"`
}

// Flags returns the command-line flags with their defaults.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("tango", pflag.ContinueOnError)
	f.String("config", "", "Path to a YAML config file")
	f.String("env-file", ".env", "Path to a .env file, ignored if missing")
	f.String("deck", "data.csv", "Deck location: a file, an http(s) URL or a git repository")
	f.String("entry", "data.csv", "Deck file inside a git repository")
	f.String("sheet", "", "Spreadsheet sheet to read, the first sheet if empty")
	f.String("db", "tango.db", "Path to the SQLite database file")
	f.String("addr", ":8080", "HTTP listen address")
	f.Int("goal", 10, "Daily goal for a new day")
	f.String("repos", "repos", "Directory git decks are cloned into")
	f.Duration("remind", time.Hour, "Reminder check interval, 0 disables reminders")
	f.String("log_level", "info", "Log level: debug, info, warn or error")
	f.String("log_format", "text", "Log format: text or json")
	f.Bool("check", false, "Load the deck, print a report and exit")
	return f
}

// Load parses args and resolves the configuration.
func Load(args []string) (*Config, error) {
	f := Flags()
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := f.GetString("env-file")
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// unchanged flags only fill keys no other source set
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Logger builds the structured logger described by the config.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
