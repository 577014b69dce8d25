package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for bvmctl.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Network   NetworkConfig   `yaml:"network"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Queue     QueueConfig     `yaml:"queue"`
	Waiters   WaitersConfig   `yaml:"waiters"`
	Inputs    InputsConfig    `yaml:"inputs"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NodeConfig identifies this control node.
type NodeConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// NetworkConfig carries the network credentials written by the external
// provisioning flow. bvmctl reads them at startup and never mutates or
// persists them; they are here so one config file describes the whole node.
// Never log the secret.
type NetworkConfig struct {
	Identity string `yaml:"identity"`
	Secret   string `yaml:"secret"`
}

// MonitorConfig contains the monitor link settings.
type MonitorConfig struct {
	// Address is the transport URI: tcp://host:port for a serial-over-IP
	// adapter, or serial://path for a directly attached port.
	Address string `yaml:"address"`
	Baud    int    `yaml:"baud"`

	// Interface optionally names the network interface carrying the link.
	// When set, it must exist at startup and the link is torn down whenever
	// it drops. Leave empty for serial transports.
	Interface string `yaml:"interface"`

	PollIntervalMs    int `yaml:"poll_interval_ms"`
	ResponseTimeoutMs int `yaml:"response_timeout_ms"`
	ReconnectDelayMs  int `yaml:"reconnect_delay_ms"`
}

// QueueConfig bounds the command queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// WaitersConfig bounds the long-poll waiter registry.
type WaitersConfig struct {
	Capacity           int `yaml:"capacity"`
	TimeoutSeconds     int `yaml:"timeout_seconds"`
	DispatchIntervalMs int `yaml:"dispatch_interval_ms"`
}

// InputsConfig contains the physical button sampling settings.
type InputsConfig struct {
	Enabled          bool            `yaml:"enabled"`
	SampleIntervalMs int             `yaml:"sample_interval_ms"`
	Buttons          []ButtonBinding `yaml:"buttons"`
}

// ButtonBinding maps one GPIO line to a monitor toggle.
type ButtonBinding struct {
	GPIO      int    `yaml:"gpio"`
	ActiveLow bool   `yaml:"active_low"`
	Button    string `yaml:"button"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BVMCTL_SECTION_KEY
// For example: BVMCTL_MONITOR_ADDRESS, BVMCTL_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:   "bvm-001",
			Name: "bvmctl",
		},
		Monitor: MonitorConfig{
			Address:           "tcp://127.0.0.1:4001",
			Baud:              38400,
			PollIntervalMs:    150,
			ResponseTimeoutMs: 1000,
			ReconnectDelayMs:  1000,
		},
		Queue: QueueConfig{
			Capacity: 8,
		},
		Waiters: WaitersConfig{
			Capacity:           4,
			TimeoutSeconds:     30,
			DispatchIntervalMs: 50,
		},
		Inputs: InputsConfig{
			SampleIntervalMs: 100,
		},
		Database: DatabaseConfig{
			Path:        "./data/bvmctl.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "bvmctl",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 60,
				Idle:  90,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BVMCTL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BVMCTL_NETWORK_IDENTITY"); v != "" {
		cfg.Network.Identity = v
	}
	if v := os.Getenv("BVMCTL_NETWORK_SECRET"); v != "" {
		cfg.Network.Secret = v
	}

	if v := os.Getenv("BVMCTL_MONITOR_ADDRESS"); v != "" {
		cfg.Monitor.Address = v
	}
	if v := os.Getenv("BVMCTL_MONITOR_INTERFACE"); v != "" {
		cfg.Monitor.Interface = v
	}

	if v := os.Getenv("BVMCTL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("BVMCTL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("BVMCTL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("BVMCTL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("BVMCTL_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("BVMCTL_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	if v := os.Getenv("BVMCTL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}

	if c.Monitor.Address == "" {
		errs = append(errs, "monitor.address is required")
	} else if !strings.HasPrefix(c.Monitor.Address, "tcp://") &&
		!strings.HasPrefix(c.Monitor.Address, "serial://") {
		errs = append(errs, "monitor.address must use tcp:// or serial:// scheme")
	}
	if c.Monitor.PollIntervalMs <= 0 {
		errs = append(errs, "monitor.poll_interval_ms must be positive")
	}
	if c.Monitor.ResponseTimeoutMs <= 0 {
		errs = append(errs, "monitor.response_timeout_ms must be positive")
	}
	if c.Monitor.ReconnectDelayMs <= 0 {
		errs = append(errs, "monitor.reconnect_delay_ms must be positive")
	}

	if c.Queue.Capacity < 1 {
		errs = append(errs, "queue.capacity must be at least 1")
	}
	if c.Waiters.Capacity < 1 {
		errs = append(errs, "waiters.capacity must be at least 1")
	}
	if c.Waiters.TimeoutSeconds < 1 {
		errs = append(errs, "waiters.timeout_seconds must be at least 1")
	}

	if c.Inputs.Enabled {
		if len(c.Inputs.Buttons) == 0 {
			errs = append(errs, "inputs.buttons is required when inputs are enabled")
		}
		for i, b := range c.Inputs.Buttons {
			if b.Button == "" {
				errs = append(errs, fmt.Sprintf("inputs.buttons[%d].button is required", i))
			}
		}
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PollInterval returns the monitor poll cadence as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalMs) * time.Millisecond
}

// ResponseTimeout returns the monitor response timeout as a Duration.
func (c *Config) ResponseTimeout() time.Duration {
	return time.Duration(c.Monitor.ResponseTimeoutMs) * time.Millisecond
}

// ReconnectDelay returns the monitor reconnect delay as a Duration.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Monitor.ReconnectDelayMs) * time.Millisecond
}

// WaiterTimeout returns the long-poll waiter timeout as a Duration.
func (c *Config) WaiterTimeout() time.Duration {
	return time.Duration(c.Waiters.TimeoutSeconds) * time.Second
}

// DispatchInterval returns the notification dispatch cadence as a Duration.
func (c *Config) DispatchInterval() time.Duration {
	return time.Duration(c.Waiters.DispatchIntervalMs) * time.Millisecond
}

// SampleInterval returns the input sampling cadence as a Duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Inputs.SampleIntervalMs) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
