package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorldServer holds all configuration for the world server.
type WorldServer struct {
	// Logging
	LogLevel string `yaml:"log_level"` // debug/info/warn/error

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Instance resets (server local time)
	DailyResetHour    int `yaml:"daily_reset_hour"`    // 0..23
	WeeklyResetDay    int `yaml:"weekly_reset_day"`    // 0=Sunday .. 6=Saturday
	WeeklyResetHour   int `yaml:"weekly_reset_hour"`   // 0..23
	LockSweepInterval int `yaml:"lock_sweep_interval"` // seconds between expired-lock sweeps
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultWorldServer returns WorldServer config with sensible defaults.
func DefaultWorldServer() WorldServer {
	return WorldServer{
		LogLevel:          "info",
		DailyResetHour:    8,
		WeeklyResetDay:    3, // Wednesday
		WeeklyResetHour:   8,
		LockSweepInterval: 300,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "wowgo",
			Password: "wowgo",
			DBName:   "wowgo",
			SSLMode:  "disable",
		},
	}
}

// LoadWorldServer loads world server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadWorldServer(path string) (WorldServer, error) {
	cfg := DefaultWorldServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
