package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"yield-dashboard/src/models"
)

// -----------------------------------------------------------------------------

// Default asset list offered by the dashboard selector.
var DefaultSymbols = []string{
	"PETR4.SA", "VALE3.SA", "VIVT3.SA", "BBAS3.SA", "BBSE3.SA", "VISC11.SA",
	"VGIP11.SA", "HGLG11.SA", "RECR11.SA", "TRXF11.SA", "EGIE3.SA", "TAEE11.SA",
}

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, applying defaults and
// environment overrides before validation.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "yield-dashboard"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8501
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 30
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 15
	}
	if len(c.DataSource.Symbols) == 0 {
		c.DataSource.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.DataSource.DefaultRangeDays == 0 {
		c.DataSource.DefaultRangeDays = 365
	}
	if len(c.DataSource.Sources) == 0 {
		c.DataSource.Sources = []models.MSourceConfig{{Name: "yahoo"}}
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 15
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 256
	}
	if c.Dashboard.Currency == "" {
		c.Dashboard.Currency = "BRL"
	}
	if c.Dashboard.ChartMaxPoints == 0 {
		c.Dashboard.ChartMaxPoints = 400
	}
}

// -----------------------------------------------------------------------------

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("DASHBOARD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DASHBOARD_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("DASHBOARD_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToUpper(v)
	}
	if v := os.Getenv("DASHBOARD_DB_TYPE"); v != "" {
		c.Storage.DBType = v
	}
	if v := os.Getenv("DASHBOARD_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("DASHBOARD_DB_DSN"); v != "" {
		c.Storage.DBConnectionString = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		for i := range c.DataSource.Sources {
			if c.DataSource.Sources[i].Name == "polygon" {
				c.DataSource.Sources[i].APIKey = v
			}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if err := validator.New().Struct(c.MConfig); err != nil {
		return err
	}

	// Cross-field rules the tags cannot express
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("database connection string cannot be empty for postgres")
	}

	seen := make(map[string]bool)
	for i, src := range c.DataSource.Sources {
		if seen[src.Name] {
			return fmt.Errorf("source %d: duplicate source '%s'", i, src.Name)
		}
		seen[src.Name] = true
		if src.Name == "polygon" && src.APIKey == "" {
			return fmt.Errorf("source 'polygon' requires an api_key")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// HasSymbol reports whether the symbol is in the configured asset list.
func (c *Config) HasSymbol(symbol string) bool {
	for _, s := range c.DataSource.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
