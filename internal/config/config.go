package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/teesheet"
)

const (
	DefaultHTTPAddr         = ":8080"
	DefaultStandingPriority = 1
	DefaultCacheTTL         = 5 * time.Minute
)

// OperatingHours defines the tee sheet day; times are "HH:MM"
type OperatingHours struct {
	DayStart    string `yaml:"dayStart" validate:"omitempty,timeofday"`
	DayEnd      string `yaml:"dayEnd" validate:"omitempty,timeofday"`
	SlotMinutes int    `yaml:"slotMinutes" validate:"omitempty,min=1,max=60"`
}

// Redis enables the availability cache
type Redis struct {
	Addr     string        `yaml:"addr" validate:"required,hostname_port"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db" validate:"min=0"`
	CacheTTL time.Duration `yaml:"cacheTTL,omitempty"`
}

// AMQP enables domain event publishing
type AMQP struct {
	URL      string `yaml:"url" validate:"required,url"`
	Exchange string `yaml:"exchange,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL      string         `yaml:"databaseURL" validate:"required"`
	OperatingHours   OperatingHours `yaml:"operatingHours"`
	StandingPriority int            `yaml:"standingPriority" validate:"min=0"`
	HTTPAddr         string         `yaml:"httpAddr"`
	Redis            *Redis         `yaml:"redis,omitempty"`
	AMQP             *AMQP          `yaml:"amqp,omitempty"`
	TeeSheetID       string         `yaml:"teeSheetID,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := model.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	registerOAuthValidations(validate)
}

// Load loads and validates the configuration from tee_sheet_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration with an environment suffix
// For example, env="test" will look for "tee_sheet_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OperatingHours.DayStart == "" {
		cfg.OperatingHours.DayStart = teesheet.DefaultDayStart.String()
	}
	if cfg.OperatingHours.DayEnd == "" {
		cfg.OperatingHours.DayEnd = teesheet.DefaultDayEnd.String()
	}
	if cfg.OperatingHours.SlotMinutes == 0 {
		cfg.OperatingHours.SlotMinutes = int(teesheet.DefaultSlotWidth / time.Minute)
	}
	if cfg.StandingPriority == 0 {
		cfg.StandingPriority = DefaultStandingPriority
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Redis != nil && cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = DefaultCacheTTL
	}
}

// Validate validates the configuration struct and checks the operating window
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := cfg.Grid(); err != nil {
		return err
	}

	return nil
}

// Grid builds the slot grid from the operating hours. Empty fields fall back to the defaults.
func (c *Config) Grid() (teesheet.Grid, error) {
	grid := teesheet.DefaultGrid()
	hours := c.OperatingHours

	if hours.DayStart != "" {
		start, err := model.ParseTimeOfDay(hours.DayStart)
		if err != nil {
			return grid, fmt.Errorf("invalid operatingHours.dayStart: %w", err)
		}
		grid.DayStart = start
	}
	if hours.DayEnd != "" {
		end, err := model.ParseTimeOfDay(hours.DayEnd)
		if err != nil {
			return grid, fmt.Errorf("invalid operatingHours.dayEnd: %w", err)
		}
		grid.DayEnd = end
	}
	if hours.SlotMinutes > 0 {
		grid.Width = time.Duration(hours.SlotMinutes) * time.Minute
	}

	if grid.DayEnd <= grid.DayStart {
		return grid, fmt.Errorf("operatingHours.dayEnd %s must be after dayStart %s", grid.DayEnd, grid.DayStart)
	}
	if grid.DayEnd.Sub(grid.DayStart) < grid.Width {
		return grid, fmt.Errorf("operating window %s-%s is shorter than one slot", grid.DayStart, grid.DayEnd)
	}

	return grid, nil
}

// findConfigFile searches for tee_sheet_config.yaml in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "tee_sheet_config.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "tee_sheet_config.yaml"
	if env != "" {
		configFileName = "tee_sheet_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
