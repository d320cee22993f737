package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in the command context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for
// config files.
const maxUpwardSearchLevels = 10

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configExistsIn checks if a shelftalk config file exists in the directory.
func configExistsIn(dir string) (string, bool) {
	for _, name := range []string{"shelftalk.yaml", "shelftalk.yml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// findConfigFile resolves the config file to use. An explicit path wins;
// otherwise search upward from the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}

	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if path, ok := configExistsIn(dir); ok {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config file >
// defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"db_path":          DefaultDBFile,
		"seeds_dir":        "",
		"loan_period_days": DefaultLoanPeriodDays,
		"verbose":          false,
		"output":           DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (shelftalk.yaml / shelftalk.yml, upward search)
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (SHELFTALK_ prefix)
	// Transform: SHELFTALK_DB_PATH -> db_path
	if err := k.Load(env.Provider("SHELFTALK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SHELFTALK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --db for brevity; the config key is db_path.
			if key == "db" {
				return "db_path", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Paths from the config file resolve relative to the file itself.
	if configFileUsed != "" {
		base := filepath.Dir(configFileUsed)
		cfg.DBPath = resolvePathRelativeTo(cfg.DBPath, base, flags, "db")
		cfg.SeedsDir = resolvePathRelativeTo(cfg.SeedsDir, base, flags, "seeds-dir")
	}

	if cfg.LoanPeriodDays <= 0 {
		return nil, fmt.Errorf("loan_period_days must be positive, got %d", cfg.LoanPeriodDays)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// resolvePathRelativeTo joins path onto baseDir unless it is empty,
// absolute, or was explicitly provided as a flag (flags are relative to
// the working directory, not the config file).
func resolvePathRelativeTo(path, baseDir string, flags *pflag.FlagSet, flagName string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if flags != nil && flags.Changed(flagName) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger. This lets
// the commands package retrieve the logger from context without an import
// cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Discard logger as safe fallback
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
