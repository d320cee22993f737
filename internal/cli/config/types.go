// Package config provides configuration management for the shelftalk CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	DBPath         string `koanf:"db_path"`
	SeedsDir       string `koanf:"seeds_dir"`
	LoanPeriodDays int    `koanf:"loan_period_days"`
	Verbose        bool   `koanf:"verbose"`
	OutputFormat   string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultDBFile         = "library.db"
	DefaultLoanPeriodDays = 30
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
