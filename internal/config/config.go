package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/ajanata/simplertc/internal/logger"
	"github.com/ajanata/simplertc/rtctime"
)

// Config is the configuration of ds1302ctl.
type Config struct {
	Log  LogConfig  `toml:"log"`
	Chip ChipConfig `toml:"chip"`
	NTP  NTPConfig  `toml:"ntp"`
	MQTT MQTTConfig `toml:"mqtt"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn" or "error"
}

// ChipConfig describes the simulated chip and its bus timing.
type ChipConfig struct {
	Start  string   `toml:"start"`  // RFC 3339; empty starts at the current time
	Settle Duration `toml:"settle"` // CE settle time
}

// NTPConfig holds the time server used by sync.
type NTPConfig struct {
	Server  string   `toml:"server"`
	Timeout Duration `toml:"timeout"`
}

// MQTTConfig holds publishing settings.
// Client selects the implementation: "paho" or "natiu".
type MQTTConfig struct {
	Client   string   `toml:"client"`
	Broker   string   `toml:"broker"`
	Topic    string   `toml:"topic"`
	ClientID string   `toml:"client_id"`
	Username string   `toml:"username,omitempty"`
	Password string   `toml:"password,omitempty"`
	QoS      int      `toml:"qos"`
	Retained bool     `toml:"retained"`
	Interval Duration `toml:"interval"`
}

// MQTT client implementations.
const (
	ClientPaho  = "paho"
	ClientNatiu = "natiu"
)

// Duration is a time.Duration written as a string such as "1µs" or "10s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the configuration written by "config init".
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: logger.InfoLevel},
		Chip: ChipConfig{
			Settle: Duration{time.Microsecond},
		},
		NTP: NTPConfig{
			Server:  "pool.ntp.org:123",
			Timeout: Duration{5 * time.Second},
		},
		MQTT: MQTTConfig{
			Client:   ClientPaho,
			Broker:   "tcp://localhost:1883",
			Topic:    "ds1302/time",
			ClientID: "ds1302ctl-" + uuid.NewString(),
			Interval: Duration{10 * time.Second},
		},
	}
}

// StartTime parses Chip.Start. ok is false when it is empty.
func (c *Config) StartTime() (t time.Time, ok bool, err error) {
	if c.Chip.Start == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.RFC3339, c.Chip.Start)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("chip.start: %w", err)
	}
	return t, true, nil
}

// Validate reports every problem found in c.
func (c *Config) Validate() error {
	var errs []error
	if !logger.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if start, ok, err := c.StartTime(); err != nil {
		errs = append(errs, err)
	} else if y := start.UTC().Year(); ok && (y < rtctime.Epoch || y > rtctime.Epoch+99) {
		errs = append(errs, fmt.Errorf("chip.start: year %d not in %d..%d", y, rtctime.Epoch, rtctime.Epoch+99))
	}
	if c.Chip.Settle.Duration < 0 {
		errs = append(errs, errors.New("chip.settle: must not be negative"))
	}
	if c.NTP.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("ntp.timeout: must be positive"))
	}
	switch c.MQTT.Client {
	case ClientPaho, ClientNatiu:
	default:
		errs = append(errs, fmt.Errorf("mqtt.client: want %q or %q, got %q", ClientPaho, ClientNatiu, c.MQTT.Client))
	}
	if c.MQTT.Topic == "" {
		errs = append(errs, errors.New("mqtt.topic: must be set"))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos: %d not in 0..2", c.MQTT.QoS))
	} else if c.MQTT.Client == ClientNatiu && c.MQTT.QoS != 0 {
		errs = append(errs, fmt.Errorf("mqtt.qos: the %s client publishes at QoS 0 only", ClientNatiu))
	}
	if c.MQTT.Interval.Duration <= 0 {
		errs = append(errs, errors.New("mqtt.interval: must be positive"))
	}
	return errors.Join(errs...)
}

// Read decodes a Config from r. Keys missing from r keep their default values.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Write encodes cfg to w.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to a new file at path. It fails if the file exists.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
