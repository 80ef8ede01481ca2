package system

import (
	"bytes"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/guxg/colossus/pkg/reporter"
	"github.com/mohae/deepcopy"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultTickPeriod = time.Second

	minCollectionTimeout = 10 * time.Millisecond
)

// Config configures a metric system.
type Config struct {
	// Namespace is the address prefix of all metrics of the system,
	// e.g. "svc/api". Empty is the root namespace.
	Namespace string `yaml:"namespace"`

	// TickPeriod is the interval of snapshot publications.
	// Defaults to DefaultTickPeriod.
	TickPeriod time.Duration `yaml:"tickPeriod"`

	// CollectSystemMetrics enables runtime and process metrics.
	// Defaults to true.
	CollectSystemMetrics *bool `yaml:"collectSystemMetrics"`

	// CollectionTimeout bounds the time collectors are waited for per
	// tick. Defaults to half the tick period.
	CollectionTimeout time.Duration `yaml:"collectionTimeout"`

	// HistogramBuckets are the bucket bounds of histograms.
	// Defaults to metric.DefaultBuckets.
	HistogramBuckets []float64 `yaml:"histogramBuckets"`

	// GlobalTags are added to every recorded event.
	GlobalTags map[string]string `yaml:"globalTags"`

	// Reporters export the snapshots.
	Reporters []reporter.Spec `yaml:"reporters"`

	// Enabled set to false creates a dead system. Defaults to true.
	Enabled *bool `yaml:"enabled"`

	// Clock drives the system. Defaults to the wall clock.
	Clock clock.Clock `yaml:"-"`
}

// ParseConfig parses a YAML configuration. Unknown fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid metric system configuration")
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot read configuration file %q", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "configuration file %q", path)
	}
	return cfg, nil
}

// IsEnabled returns false if the configuration asks for a dead system.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// withDefaults returns a copy of c with defaults applied. c is not
// modified.
func (c *Config) withDefaults() Config {
	clk := c.Clock
	orig := *c
	orig.Clock = nil
	result := deepcopy.Copy(orig).(Config)
	result.Clock = clk

	if result.Clock == nil {
		result.Clock = clock.New()
	}
	if result.TickPeriod == 0 {
		result.TickPeriod = DefaultTickPeriod
	}
	if result.CollectSystemMetrics == nil {
		enabled := true
		result.CollectSystemMetrics = &enabled
	}
	if result.CollectionTimeout == 0 {
		result.CollectionTimeout = result.TickPeriod / 2
		if result.CollectionTimeout < minCollectionTimeout {
			result.CollectionTimeout = minCollectionTimeout
		}
	}
	return result
}

func (c *Config) validate() error {
	if c.TickPeriod <= 0 {
		return errors.Errorf("tick period must be positive, got %v", c.TickPeriod)
	}
	if c.CollectionTimeout < 0 {
		return errors.Errorf("collection timeout must not be negative, got %v", c.CollectionTimeout)
	}
	return nil
}
