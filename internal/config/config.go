package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the table service and the waiter
// simulation. Both modes read the same file.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Addr               string `yaml:"addr"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
}

// SimulationConfig holds the waiter simulation parameters.
type SimulationConfig struct {
	ServerURL  string `yaml:"server_url"`
	Tables     int    `yaml:"tables"`
	Waiters    int    `yaml:"waiters"`
	Iterations int    `yaml:"iterations"`
	Seed       int64  `yaml:"seed"`
}

// RabbitMQConfig holds the optional event publisher configuration.
type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// URL returns the AMQP connection URL.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

// Load reads and validates configuration from a YAML file. Environment
// variables TABLE_SERVICE_ADDR and RABBITMQ_PASSWORD override the file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	config := defaults()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if addr := os.Getenv("TABLE_SERVICE_ADDR"); addr != "" {
		config.Server.Addr = addr
	}
	if pass := os.Getenv("RABBITMQ_PASSWORD"); pass != "" {
		config.RabbitMQ.Password = pass
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":9000",
			ShutdownTimeoutSec: 10,
		},
		Simulation: SimulationConfig{
			ServerURL:  "http://localhost:9000",
			Tables:     50,
			Waiters:    10,
			Iterations: 200,
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
			User: "guest",
		},
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Simulation.Tables < 1 {
		return fmt.Errorf("simulation.tables must be at least 1, got %d", c.Simulation.Tables)
	}
	if c.Simulation.Waiters < 1 {
		return fmt.Errorf("simulation.waiters must be at least 1, got %d", c.Simulation.Waiters)
	}
	if c.Simulation.Iterations < 1 {
		return fmt.Errorf("simulation.iterations must be at least 1, got %d", c.Simulation.Iterations)
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq.host is required when rabbitmq is enabled")
	}
	return nil
}
