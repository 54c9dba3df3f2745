package mq

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can use "500ms"/"30s" style
// strings. Plain integers are taken as nanoseconds.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.Std().String(), nil }

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.Std().String()) }

// Config carries construction-time settings. Zero or negative numeric fields
// fall back to their defaults via normalize.
type Config struct {
	// MaxQueueSize bounds each topic's FIFO buffer. On overflow the oldest
	// message is silently evicted.
	MaxQueueSize int `json:"max_queue_size" yaml:"max_queue_size"`
	// MaxRetries bounds redelivery attempts per failing subscriber before a
	// message is dead-lettered. Zero disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
	// DeadLetterEnabled routes terminally failed messages to the dead-letter
	// sink. When false they are dropped after the final retry.
	DeadLetterEnabled bool `json:"dead_letter_enabled" yaml:"dead_letter_enabled"`
	// DeadLetterCapacity bounds the dead-letter sink; oldest entries are
	// evicted on overflow.
	DeadLetterCapacity int `json:"dead_letter_capacity" yaml:"dead_letter_capacity"`
	// ResponseTTL bounds how long a response parked by Respond outlives the
	// request that never consumed it.
	ResponseTTL Duration `json:"response_ttl" yaml:"response_ttl"`
	// SweepInterval is how often parked responses are checked for expiry.
	SweepInterval Duration `json:"sweep_interval" yaml:"sweep_interval"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:       10000,
		MaxRetries:         3,
		DeadLetterEnabled:  true,
		DeadLetterCapacity: 1000,
		ResponseTTL:        Duration(30 * time.Second),
		SweepInterval:      Duration(5 * time.Second),
	}
}

// LoadConfig decodes a YAML config from r on top of the defaults, so absent
// keys keep their default values.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("mq: decode yaml config: %w", err)
	}
	c.normalize()
	return c, nil
}

// LoadConfigJSON is LoadConfig for JSON input.
func LoadConfigJSON(r io.Reader) (Config, error) {
	c := DefaultConfig()
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("mq: decode json config: %w", err)
	}
	c.normalize()
	return c, nil
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.DeadLetterCapacity <= 0 {
		c.DeadLetterCapacity = def.DeadLetterCapacity
	}
	if c.ResponseTTL <= 0 {
		c.ResponseTTL = def.ResponseTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
}
