package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateResolve(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if c.Normalize.AddressConcurrency < 1 {
		return errors.New("normalize.address_concurrency must be at least 1")
	}
	if c.Normalize.Workers < 1 {
		return errors.New("normalize.workers must be at least 1")
	}
	if !(c.Oracle.RatePerSecond > 0) {
		return errors.New("oracle.rate_per_second must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

func (c *Config) validateResolve() error {
	if c.Resolve.NameThreshold < 0 || c.Resolve.NameThreshold > 100 {
		return fmt.Errorf("%w: name threshold %d outside 0-100", ErrInvalidThreshold, c.Resolve.NameThreshold)
	}
	if c.Resolve.AddrThreshold < 0 || c.Resolve.AddrThreshold > 100 {
		return fmt.Errorf("%w: address threshold %d outside 0-100", ErrInvalidThreshold, c.Resolve.AddrThreshold)
	}
	if c.Resolve.Workers < 1 {
		return errors.New("resolve.workers must be at least 1")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	high, low := c.Classifier.High, c.Classifier.Low
	if math.IsNaN(high) || math.IsNaN(low) {
		return fmt.Errorf("%w: classifier bounds must be numbers", ErrInvalidThreshold)
	}
	if high < 0 || high > 1 || low < 0 || low > 1 {
		return fmt.Errorf("%w: classifier bounds must be within 0-1 (high=%.2f low=%.2f)", ErrInvalidThreshold, high, low)
	}
	if low > high {
		return fmt.Errorf("%w: classifier low %.2f exceeds high %.2f", ErrInvalidThreshold, low, high)
	}
	return nil
}
