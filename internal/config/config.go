// Package config loads service configuration from defaults, a YAML file,
// .env, KNOLNOTES_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
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

// EnvPrefix is the prefix of environment overrides. Nested keys use a double
// underscore, e.g. KNOLNOTES_SERVER__ADDR.
const EnvPrefix = "KNOLNOTES_"

type Config struct {
	DB     string       `koanf:"db" validate:"required"`
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
	Sync   SyncConfig   `koanf:"sync"`
	Quiz   QuizConfig   `koanf:"quiz"`
	Sheet  SheetConfig  `koanf:"sheet"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
	// UserID owns every note created through this instance.
	UserID      string   `koanf:"user_id" validate:"required"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type SyncConfig struct {
	// Interval between background source syncs; zero disables them.
	Interval time.Duration `koanf:"interval" validate:"gte=0s"`
	ReposDir string        `koanf:"repos_dir" validate:"required"`
}

type QuizConfig struct {
	IdleTTL time.Duration `koanf:"idle_ttl" validate:"gte=0s"`
}

// SheetConfig selects the spreadsheet columns notes are imported from.
type SheetConfig struct {
	Sheet         string `koanf:"sheet" validate:"required"`
	ContentCol    string `koanf:"content_col" validate:"required,alpha,uppercase"`
	HiddenCol     string `koanf:"hidden_col" validate:"required,alpha,uppercase"`
	CollectionCol string `koanf:"collection_col" validate:"omitempty,alpha,uppercase"`
	StartRow      int    `koanf:"start_row" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB: "knolnotes.db",
		Server: ServerConfig{
			Addr:   ":8080",
			UserID: "local",
		},
		Log:  LogConfig{Level: "info", Format: "json"},
		Sync: SyncConfig{ReposDir: "repos"},
		Quiz: QuizConfig{IdleTTL: 30 * time.Minute},
		Sheet: SheetConfig{
			Sheet:      "Sheet1",
			ContentCol: "A",
			HiddenCol:  "B",
			StartRow:   2,
		},
	}
}

// flagKeys maps command-line flags onto config keys. Flags not listed here
// are commands, not configuration.
var flagKeys = map[string]string{
	"db":            "db",
	"addr":          "server.addr",
	"user":          "server.user_id",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"sync-interval": "sync.interval",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to a YAML config file")
	fs.String("db", d.DB, "Path to the SQLite database file")
	fs.String("addr", d.Server.Addr, "HTTP listen address")
	fs.String("user", d.Server.UserID, "User that owns notes created by this instance")
	fs.String("log-level", d.Log.Level, "Log level: debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "Log format: json or text")
	fs.Duration("sync-interval", d.Sync.Interval, "Interval between background source syncs (0 disables)")
}

// Load reads configuration for the parsed flag set.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its field constraints.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
