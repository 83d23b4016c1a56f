package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadEnv loads environment variables from a .env file. The first file found
// among path, ./.env, ../.env is used; variables already set win.
func LoadEnv(paths ...string) error {
	envPaths := append(append([]string{}, paths...), ".env", "../.env")

	for _, envPath := range envPaths {
		if envPath == "" {
			continue
		}
		data, err := os.ReadFile(envPath)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

			if _, set := os.LookupEnv(key); !set {
				if err := os.Setenv(key, value); err != nil {
					return fmt.Errorf("set %s from %s: %w", key, envPath, err)
				}
			}
		}
		break
	}
	return nil
}

// GetEnv gets environment variable with default
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool gets boolean environment variable with default
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

// LookupEnvInt reads an integer variable. A malformed value is an error
// rather than a silent fallback.
func LookupEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s=%q: not an integer", key, value)
	}
	return parsed, nil
}

// LookupEnvFloat reads a float variable, rejecting malformed, NaN and
// infinite values.
func LookupEnvFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return defaultValue, fmt.Errorf("%s=%q: not a number", key, value)
	}
	return parsed, nil
}
