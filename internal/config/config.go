// Package config assembles resolver settings from defaults, an optional TOML
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidThreshold marks a threshold that is malformed or out of range.
var ErrInvalidThreshold = errors.New("invalid threshold")

// Resolve holds the orchestrator's merge gate.
type Resolve struct {
	NameThreshold int `toml:"name_threshold"`
	AddrThreshold int `toml:"addr_threshold"`
	Workers       int `toml:"workers"`
}

// Classifier holds the tier bounds on the 0–1 scale.
type Classifier struct {
	High float64 `toml:"high"`
	Low  float64 `toml:"low"`
}

// Normalize controls record normalisation.
type Normalize struct {
	AddressConcurrency int `toml:"address_concurrency"`
	Workers            int `toml:"workers"`
}

// Input names the table columns read by the importers.
type Input struct {
	Path          string `toml:"path"`
	IDColumn      string `toml:"id_column"`
	NameColumn    string `toml:"name_column"`
	AddressColumn string `toml:"address_column"`
}

// Oracle configures the model-backed adjudicator.
type Oracle struct {
	URL            string  `toml:"url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	RatePerSecond  float64 `toml:"rate_per_second"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host           string `toml:"host"`
	Port           string `toml:"port"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	Name           string `toml:"name"`
	SSLMode        string `toml:"sslmode"`
	MaxConnections int    `toml:"max_connections"`
}

// DSN renders the lib/pq connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Server holds HTTP API settings.
type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// APIKey, when set, is required in the X-API-Key header of API calls.
	APIKey string `toml:"api_key"`
	// MaxRecords caps the records accepted by one resolve request.
	MaxRecords int `toml:"max_records"`
	// MaxPairRecords caps the records a classify request may expand into
	// scored pairs; the pair list grows with the square of this number.
	MaxPairRecords int `toml:"max_pair_records"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for the resolver.
type Config struct {
	Resolve    Resolve    `toml:"resolve"`
	Classifier Classifier `toml:"classifier"`
	Normalize  Normalize  `toml:"normalize"`
	Input      Input      `toml:"input"`
	Oracle     Oracle     `toml:"oracle"`
	Database   Database   `toml:"database"`
	Server     Server     `toml:"server"`
	Logging    Logging    `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Resolve: Resolve{
			NameThreshold: 85,
			AddrThreshold: 75,
			Workers:       runtime.NumCPU(),
		},
		Classifier: Classifier{
			High: 0.85,
			Low:  0.60,
		},
		Normalize: Normalize{
			AddressConcurrency: 4,
			Workers:            runtime.NumCPU(),
		},
		Input: Input{
			Path:          "sample.csv",
			IDColumn:      "PartyId",
			NameColumn:    "PartyName",
			AddressColumn: "Address",
		},
		Oracle: Oracle{
			URL:            "http://localhost:11434/v1/chat/completions",
			Model:          "llama3.1",
			RatePerSecond:  2,
			TimeoutSeconds: 30,
		},
		Database: Database{
			Host:           "localhost",
			Port:           "5432",
			User:           "postgres",
			Name:           "entity_resolver",
			SSLMode:        "disable",
			MaxConnections: 10,
		},
		Server: Server{
			Host:           "localhost",
			Port:           8080,
			MaxRecords:     20000,
			MaxPairRecords: 1000,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds a configuration from defaults, the TOML file at path (when
// non-empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Resolve.NameThreshold, err = LookupEnvInt("NAME_THRESHOLD", c.Resolve.NameThreshold); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
	}
	if c.Resolve.AddrThreshold, err = LookupEnvInt("ADDR_THRESHOLD", c.Resolve.AddrThreshold); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
	}
	if c.Classifier.High, err = LookupEnvFloat("CLASSIFIER_HIGH", c.Classifier.High); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
	}
	if c.Classifier.Low, err = LookupEnvFloat("CLASSIFIER_LOW", c.Classifier.Low); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
	}
	if c.Resolve.Workers, err = LookupEnvInt("RESOLVE_WORKERS", c.Resolve.Workers); err != nil {
		return err
	}
	if c.Normalize.AddressConcurrency, err = LookupEnvInt("ADDRESS_CONCURRENCY", c.Normalize.AddressConcurrency); err != nil {
		return err
	}
	if c.Oracle.RatePerSecond, err = LookupEnvFloat("ORACLE_RATE", c.Oracle.RatePerSecond); err != nil {
		return err
	}
	if c.Database.MaxConnections, err = LookupEnvInt("DB_MAX_CONNECTIONS", c.Database.MaxConnections); err != nil {
		return err
	}
	if c.Server.Port, err = LookupEnvInt("WEB_PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Server.MaxRecords, err = LookupEnvInt("WEB_MAX_RECORDS", c.Server.MaxRecords); err != nil {
		return err
	}
	if c.Server.MaxPairRecords, err = LookupEnvInt("WEB_MAX_PAIR_RECORDS", c.Server.MaxPairRecords); err != nil {
		return err
	}

	c.Input.Path = GetEnv("CSV_PATH", c.Input.Path)
	c.Oracle.URL = GetEnv("ORACLE_URL", c.Oracle.URL)
	c.Oracle.APIKey = GetEnv("ORACLE_API_KEY", c.Oracle.APIKey)
	c.Oracle.Model = GetEnv("ORACLE_MODEL", c.Oracle.Model)
	c.Database.Host = GetEnv("PGHOST", c.Database.Host)
	c.Database.Port = GetEnv("PGPORT", c.Database.Port)
	c.Database.User = GetEnv("PGUSER", c.Database.User)
	c.Database.Password = GetEnv("PGPASSWORD", c.Database.Password)
	c.Database.Name = GetEnv("PGDATABASE", c.Database.Name)
	c.Database.SSLMode = GetEnv("PGSSLMODE", c.Database.SSLMode)
	c.Server.Host = GetEnv("WEB_HOST", c.Server.Host)
	c.Server.APIKey = GetEnv("WEB_API_KEY", c.Server.APIKey)
	c.Logging.Level = GetEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = GetEnv("LOG_FORMAT", c.Logging.Format)
	return nil
}
