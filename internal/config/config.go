package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oleandersen/pickup-orders/internal/domain"
)

// Config is the whole application configuration, loaded from one YAML file.
type Config struct {
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	Redis      RedisConfig      `yaml:"redis"`
	Pickup     PickupConfig     `yaml:"pickup"`
	Logger     LoggerConfig     `yaml:"logger"`
}

type HTTPServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PickupConfig tunes the scheduling engine.
type PickupConfig struct {
	LeadMinutes         int `yaml:"lead_minutes"`
	SlotIntervalMinutes int `yaml:"slot_interval_minutes"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the YAML configuration file, applying defaults for
// optional sections.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTPServer.ReadTimeout == 0 {
		c.HTTPServer.ReadTimeout = 15 * time.Second
	}
	if c.HTTPServer.WriteTimeout == 0 {
		c.HTTPServer.WriteTimeout = 15 * time.Second
	}
	if c.HTTPServer.IdleTimeout == 0 {
		c.HTTPServer.IdleTimeout = 60 * time.Second
	}
	if c.Pickup.LeadMinutes == 0 {
		c.Pickup.LeadMinutes = int(domain.DefaultLeadTime / time.Minute)
	}
	if c.Pickup.SlotIntervalMinutes == 0 {
		c.Pickup.SlotIntervalMinutes = int(domain.DefaultSlotInterval / time.Minute)
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
}

// LeadTime returns the configured lead buffer as a duration.
func (c *Config) LeadTime() time.Duration {
	return time.Duration(c.Pickup.LeadMinutes) * time.Minute
}

// SlotInterval returns the configured slot granularity as a duration.
func (c *Config) SlotInterval() time.Duration {
	return time.Duration(c.Pickup.SlotIntervalMinutes) * time.Minute
}
