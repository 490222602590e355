package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// values resolves a setting from the environment first, then the config file.
type values struct {
	file map[string]string
}

func (v values) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := v.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (v values) getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(v.get(key, "")); err == nil {
		return b
	}
	return defaultValue
}

func (v values) getInt(key string, defaultValue int) int {
	if i, err := strconv.Atoi(v.get(key, "")); err == nil {
		return i
	}
	return defaultValue
}

func (v values) getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(v.get(key, "")); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

// readFile loads a flat YAML document. Keys are matched case-insensitively
// against the environment variable names, e.g. `access_token_ttl: 30m`.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config readFile] %w", err)
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("[config readFile] parse %s: %w", path, err)
	}
	file := make(map[string]string, len(raw))
	for k, val := range raw {
		if val == nil {
			continue
		}
		file[strings.ToUpper(k)] = fmt.Sprint(val)
	}
	return file, nil
}

// GetEnv reads a single environment variable, falling back to defaultValue when unset.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
