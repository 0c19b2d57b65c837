package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/irrigation/internal/clock"
	"github.com/oshokin/irrigation/internal/logger"
)

// Config holds the settings of the irrigation server and its control client.
type Config struct {
	// GRPCAddress is the gRPC listen address of the server and the dial target of the client.
	GRPCAddress string `yaml:"grpc_addr"`
	// HTTPAddress is the HTTP listen address of the server.
	HTTPAddress string `yaml:"http_addr"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// TickInterval is the control loop period.
	TickInterval time.Duration `yaml:"tick_interval"`
	// UTCOffsetHours is the fixed civil zone of the installation. Nil selects UTC-3.
	UTCOffsetHours *int `yaml:"utc_offset_hours,omitempty"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// Preset names a built-in device set, used when Devices is empty.
	Preset string `yaml:"preset,omitempty"`
	// Devices lists valves explicitly and overrides Preset.
	Devices []DeviceConfig `yaml:"devices,omitempty"`
	// Store selects where settings are persisted.
	Store StoreConfig `yaml:"store"`
	// Hardware selects the output line driver.
	Hardware HardwareConfig `yaml:"hardware"`
	// Events configures external event sinks.
	Events EventsConfig `yaml:"events"`
	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// DeviceConfig describes one valve.
type DeviceConfig struct {
	// Name is the unique device identifier.
	Name string `yaml:"name"`
	// Pin is the output line offset on the GPIO chip.
	Pin int `yaml:"pin"`
	// Start is the default window start as HH:MM or HH:MM:SS.
	Start string `yaml:"start"`
	// Duration is the default window length.
	Duration time.Duration `yaml:"duration"`
}

// StoreConfig selects the settings backend.
type StoreConfig struct {
	// Backend is file, redis or memory.
	Backend string `yaml:"backend"`
	// Path is the JSON file used by the file backend.
	Path string `yaml:"path,omitempty"`
	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr,omitempty"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// HardwareConfig selects the output driver.
type HardwareConfig struct {
	// Driver is memory (simulated lines) or gpiocdev (Linux GPIO character device).
	Driver string `yaml:"driver"`
	// Chip is the GPIO chip name used by the gpiocdev driver.
	Chip string `yaml:"chip,omitempty"`
	// HeartbeatPin, when set, is toggled on every control loop tick.
	HeartbeatPin *int `yaml:"heartbeat_pin,omitempty"`
}

// EventsConfig holds the optional broker sinks.
type EventsConfig struct {
	MQTT MQTTConfig `yaml:"mqtt"`
	NATS NATSConfig `yaml:"nats"`
}

// MQTTConfig configures the MQTT sink.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	Topic    string `yaml:"topic,omitempty"`
	QoS      byte   `yaml:"qos,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// NATSConfig configures the NATS sink.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Token   string `yaml:"token,omitempty"`
}

// MetricsConfig configures the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "irrigation-settings.yaml"
	// DefaultStateFilename is the default file of the file settings backend.
	DefaultStateFilename = "irrigation-state.json"

	// DefaultGRPCAddress is the default gRPC address.
	DefaultGRPCAddress = "127.0.0.1:50051"
	// DefaultHTTPAddress is the default HTTP listen address.
	DefaultHTTPAddress = ":8080"
	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second
	// DefaultTickInterval is the default control loop period.
	DefaultTickInterval = time.Second
	// DefaultLogLevel is used when log_level is empty.
	DefaultLogLevel = "info"
	// DefaultPreset is used when neither preset nor devices are given.
	DefaultPreset = PresetFrontYard
	// DefaultGPIOChip is the chip used by the gpiocdev driver.
	DefaultGPIOChip = "gpiochip0"
	// DefaultRedisAddress is the default Redis server.
	DefaultRedisAddress = "localhost:6379"
	// DefaultMQTTClientID identifies the controller to the MQTT broker.
	DefaultMQTTClientID = "irrigation-server"

	// StoreFile persists settings in a JSON file.
	StoreFile = "file"
	// StoreRedis persists settings in Redis.
	StoreRedis = "redis"
	// StoreMemory keeps settings in memory only.
	StoreMemory = "memory"

	// DriverMemory simulates output lines in memory.
	DriverMemory = "memory"
	// DriverGPIOCDev drives lines through the Linux GPIO character device.
	DriverGPIOCDev = "gpiocdev"

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600

	maxUTCOffsetHours = 14
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownPreset is returned for a preset name that is not built in.
	errUnknownPreset = errors.New("unknown device preset")
	// errInvalidDevice is returned for an unusable device entry.
	errInvalidDevice = errors.New("invalid device")
	// errUnknownBackend is returned for an unsupported store backend.
	errUnknownBackend = errors.New("unknown store backend")
	// errUnknownDriver is returned for an unsupported hardware driver.
	errUnknownDriver = errors.New("unknown hardware driver")
	// errInvalidValue is returned for out-of-range scalar settings.
	errInvalidValue = errors.New("invalid setting")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save validates cfg and writes it to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// Validate fills defaults and checks every field.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if err := validateNetwork(settings); err != nil {
		return err
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: log level %q", errInvalidValue, settings.LogLevel)
	}

	if settings.UTCOffsetHours != nil {
		if h := *settings.UTCOffsetHours; h < -maxUTCOffsetHours || h > maxUTCOffsetHours {
			return fmt.Errorf("%w: utc offset %d hours", errInvalidValue, h)
		}
	}

	if err := validateDevices(settings); err != nil {
		return err
	}

	if err := validateStore(&settings.Store); err != nil {
		return err
	}

	if err := validateHardware(&settings.Hardware); err != nil {
		return err
	}

	return validateEvents(&settings.Events)
}

// UTCOffset returns the configured zone offset in hours.
func (c *Config) UTCOffset() int {
	if c.UTCOffsetHours == nil {
		return clock.DefaultUTCOffsetHours
	}

	return *c.UTCOffsetHours
}

// ResolveDevices returns the explicit device list or the preset one.
func (c *Config) ResolveDevices() ([]DeviceConfig, error) {
	if len(c.Devices) > 0 {
		return c.Devices, nil
	}

	name := c.Preset
	if name == "" {
		name = DefaultPreset
	}

	devices, ok := Preset(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownPreset, name)
	}

	return devices, nil
}

func validateNetwork(settings *Config) error {
	if settings.GRPCAddress == "" {
		settings.GRPCAddress = DefaultGRPCAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if settings.HTTPAddress == "" {
		settings.HTTPAddress = DefaultHTTPAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
		return fmt.Errorf("invalid http address: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.TickInterval <= 0 {
		settings.TickInterval = DefaultTickInterval
	}

	return nil
}

func validateDevices(settings *Config) error {
	if len(settings.Devices) == 0 && settings.Preset == "" {
		settings.Preset = DefaultPreset
	}

	devices, err := settings.ResolveDevices()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(devices))

	for i, d := range devices {
		if d.Name == "" {
			return fmt.Errorf("%w #%d: name is required", errInvalidDevice, i)
		}

		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w %q: duplicate name", errInvalidDevice, d.Name)
		}

		seen[d.Name] = struct{}{}

		if d.Pin < 0 {
			return fmt.Errorf("%w %q: negative pin", errInvalidDevice, d.Name)
		}

		if _, err = clock.ParseTimeOfDay(d.Start); err != nil {
			return fmt.Errorf("%w %q: %w", errInvalidDevice, d.Name, err)
		}

		if d.Duration < 0 {
			return fmt.Errorf("%w %q: negative duration", errInvalidDevice, d.Name)
		}
	}

	return nil
}

func validateStore(store *StoreConfig) error {
	if store.Backend == "" {
		store.Backend = StoreFile
	}

	switch store.Backend {
	case StoreFile:
		if store.Path == "" {
			store.Path = DefaultStateFilename
		}
	case StoreRedis:
		if store.Redis.Addr == "" {
			store.Redis.Addr = DefaultRedisAddress
		}

		if _, err := net.ResolveTCPAddr("tcp", store.Redis.Addr); err != nil {
			return fmt.Errorf("invalid redis address: %w", err)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, store.Backend)
	}

	return nil
}

func validateHardware(hw *HardwareConfig) error {
	if hw.Driver == "" {
		hw.Driver = DriverMemory
	}

	switch hw.Driver {
	case DriverMemory:
	case DriverGPIOCDev:
		if hw.Chip == "" {
			hw.Chip = DefaultGPIOChip
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownDriver, hw.Driver)
	}

	if hw.HeartbeatPin != nil && *hw.HeartbeatPin < 0 {
		return fmt.Errorf("%w: negative heartbeat pin", errInvalidValue)
	}

	return nil
}

func validateEvents(ev *EventsConfig) error {
	if ev.MQTT.Enabled {
		if _, err := url.ParseRequestURI(ev.MQTT.Broker); err != nil {
			return fmt.Errorf("invalid mqtt broker URI: %w", err)
		}

		if ev.MQTT.ClientID == "" {
			ev.MQTT.ClientID = DefaultMQTTClientID
		}

		if ev.MQTT.QoS > 2 { //nolint:mnd // MQTT defines QoS 0, 1 and 2.
			return fmt.Errorf("%w: mqtt qos %d", errInvalidValue, ev.MQTT.QoS)
		}
	}

	if ev.NATS.Enabled {
		if _, err := url.ParseRequestURI(ev.NATS.URL); err != nil {
			return fmt.Errorf("invalid nats URI: %w", err)
		}
	}

	return nil
}
