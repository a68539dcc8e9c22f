package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailored-agentic-units/dotstore/storage"
)

const defaultAddr = "127.0.0.1:8420"

// Config holds initialization parameters for the server and its store.
type Config struct {
	Addr      string         `json:"addr,omitempty"`
	RateLimit float64        `json:"rate_limit,omitempty"` // requests per second; 0 disables limiting
	Observer  string         `json:"observer,omitempty"`   // observability registry name
	Storage   storage.Config `json:"storage"`
}

// DefaultConfig returns a loopback server over a volatile memory store.
func DefaultConfig() Config {
	return Config{
		Addr:    defaultAddr,
		Storage: storage.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating the storage
// section to storage.Config.Merge.
func (c *Config) Merge(source *Config) {
	c.Storage.Merge(&source.Storage)

	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.RateLimit > 0 {
		c.RateLimit = source.RateLimit
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
