package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ouroware/hypergrid"
)

// Config is the yaml shape of a `gridctl serve` mesh.
type Config struct {
	Listen string `yaml:"listen"`
	Rank   int    `yaml:"rank"`

	HeartbeatTimeout string `yaml:"heartbeat_timeout"`
	DrainTimeout     string `yaml:"drain_timeout"`

	ErrorRate struct {
		Threshold float64 `yaml:"threshold"`
		Window    string  `yaml:"window"`
	} `yaml:"error_rate"`

	InboxDepth int      `yaml:"inbox_depth"`
	Peers      []string `yaml:"peers"`

	Gossip struct {
		Enabled  bool   `yaml:"enabled"`
		NodeName string `yaml:"node_name"`
		BindAddr string `yaml:"bind_addr"`
		BindPort int    `yaml:"bind_port"`
	} `yaml:"gossip"`
}

// LoadConfig reads a yaml mesh config, falling back to defaults where the
// file stays silent.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Listen:           "127.0.0.1:7433",
		Rank:             3,
		HeartbeatTimeout: "10s",
		DrainTimeout:     "5s",
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	return cfg, nil
}

// Options translates the config into orchestrator options.
func (c *Config) Options() ([]hypergrid.Option, error) {
	heartbeat, err := time.ParseDuration(c.HeartbeatTimeout)
	if err != nil {
		return nil, fmt.Errorf("heartbeat_timeout: %w", err)
	}
	drain, err := time.ParseDuration(c.DrainTimeout)
	if err != nil {
		return nil, fmt.Errorf("drain_timeout: %w", err)
	}

	opts := []hypergrid.Option{
		hypergrid.WithRank(c.Rank),
		hypergrid.WithHeartbeatTimeout(heartbeat),
		hypergrid.WithDrainTimeout(drain),
		hypergrid.WithInboxDepth(c.InboxDepth),
		hypergrid.WithPeerRegistry(
			hypergrid.NewPeerRegistry(hypergrid.ParsePeerList(c.Peers)),
		),
	}

	if c.ErrorRate.Threshold > 0 {
		window := time.Duration(0)
		if c.ErrorRate.Window != "" {
			window, err = time.ParseDuration(c.ErrorRate.Window)
			if err != nil {
				return nil, fmt.Errorf("error_rate.window: %w", err)
			}
		}
		opts = append(opts, hypergrid.WithErrorRate(c.ErrorRate.Threshold, window))
	}
	return opts, nil
}
