package web

import (
	"github.com/entity-resolver/internal/config"
	"github.com/entity-resolver/internal/match"
)

// Config represents the web server configuration
type Config struct {
	Host             string
	Port             int
	APIKey           string
	MaxRecords       int
	MaxPairRecords   int
	NormalizeWorkers int
	Engine           match.EngineConfig
	Tiers            match.Tiers
}

// ConfigFrom derives the server configuration from the resolver settings.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		APIKey:           cfg.Server.APIKey,
		MaxRecords:       cfg.Server.MaxRecords,
		MaxPairRecords:   cfg.Server.MaxPairRecords,
		NormalizeWorkers: cfg.Normalize.Workers,
		Engine: match.EngineConfig{
			NameThreshold: cfg.Resolve.NameThreshold,
			AddrThreshold: cfg.Resolve.AddrThreshold,
			Workers:       cfg.Resolve.Workers,
		},
		Tiers: match.Tiers{
			High: cfg.Classifier.High,
			Low:  cfg.Classifier.Low,
		},
	}
}
