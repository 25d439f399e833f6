package scpfwk

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// TickConfig declares one periodic event source for the Ticker. The target
// module is named so tick tables can live in config files; Element below
// zero addresses the module itself.
type TickConfig struct {
	// Schedule is a cron expression, e.g. "@every 1s" or "*/5 * * * *".
	Schedule string `yaml:"schedule" toml:"schedule"`

	// Module names the target module.
	Module string `yaml:"module" toml:"module"`

	// Element selects a target element; negative means the module itself.
	Element int `yaml:"element" toml:"element"`

	// Event is the event type index within the target module.
	Event int `yaml:"event" toml:"event"`
}

// Config sizes the core. Everything is fixed at New; nothing grows at
// runtime.
type Config struct {
	// EventPoolSize is the number of preallocated event slots.
	EventPoolSize int `yaml:"eventPoolSize" toml:"eventPoolSize" env:"SCPFWK_EVENT_POOL_SIZE"`

	// ISRQueueSize is the depth of the ingress queue filled by
	// PutEventFromISR.
	ISRQueueSize int `yaml:"isrQueueSize" toml:"isrQueueSize" env:"SCPFWK_ISR_QUEUE_SIZE"`

	// NotificationSlots caps concurrent notification subscriptions.
	NotificationSlots int `yaml:"notificationSlots" toml:"notificationSlots" env:"SCPFWK_NOTIFICATION_SLOTS"`

	// PendingNotificationSlots caps broadcasts awaiting acknowledgement.
	PendingNotificationSlots int `yaml:"pendingNotificationSlots" toml:"pendingNotificationSlots" env:"SCPFWK_PENDING_NOTIFICATION_SLOTS"`

	// LogLevel is the default logger level (zerolog level names).
	LogLevel string `yaml:"logLevel" toml:"logLevel" env:"SCPFWK_LOG_LEVEL"`

	// TraceDispatch emits one observer trace event per dispatched event.
	TraceDispatch bool `yaml:"traceDispatch" toml:"traceDispatch" env:"SCPFWK_TRACE_DISPATCH"`

	// DebugCookieTracking records outstanding delayed-response cookies and
	// flags duplicate completions.
	DebugCookieTracking bool `yaml:"debugCookieTracking" toml:"debugCookieTracking" env:"SCPFWK_DEBUG_COOKIE_TRACKING"`

	// Ticks are periodic event sources consumed by NewTickerFromConfig.
	Ticks []TickConfig `yaml:"ticks" toml:"ticks"`
}

// DefaultConfig returns a configuration that is valid without any file.
func DefaultConfig() Config {
	return Config{
		EventPoolSize:            64,
		ISRQueueSize:             32,
		NotificationSlots:        64,
		PendingNotificationSlots: 16,
		LogLevel:                 "info",
	}
}

// Validate checks the sizing invariants.
func (c Config) Validate() error {
	if c.EventPoolSize <= 0 {
		return fmt.Errorf("%w: eventPoolSize must be positive", ErrConfigInvalid)
	}
	if c.ISRQueueSize <= 0 {
		return fmt.Errorf("%w: isrQueueSize must be positive", ErrConfigInvalid)
	}
	if c.NotificationSlots <= 0 {
		return fmt.Errorf("%w: notificationSlots must be positive", ErrConfigInvalid)
	}
	if c.PendingNotificationSlots <= 0 {
		return fmt.Errorf("%w: pendingNotificationSlots must be positive", ErrConfigInvalid)
	}
	for i, tick := range c.Ticks {
		if tick.Schedule == "" || tick.Module == "" {
			return fmt.Errorf("%w: tick %d needs a schedule and a module", ErrConfigInvalid, i)
		}
	}
	return nil
}

// LoadConfig reads a framework config file, chosen by extension (.yaml,
// .yml or .toml), applies environment overrides and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing yaml config %q: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing toml config %q: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: %q", ErrConfigFormat, path)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ConfigFromEnv returns the defaults with environment overrides applied.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnvOverrides feeds fields tagged with env from the process
// environment, casting string values to the field type.
func applyEnvOverrides(cfg *Config) error {
	rv := reflect.ValueOf(cfg).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := rt.Field(i).Tag.Get("env")
		if tag == "" {
			continue
		}
		raw, ok := os.LookupEnv(tag)
		if !ok {
			continue
		}
		value, err := cast.FromType(raw, rt.Field(i).Type)
		if err != nil {
			return fmt.Errorf("env override %s=%q: %w", tag, raw, err)
		}
		rv.Field(i).Set(reflect.ValueOf(value))
	}
	return nil
}
