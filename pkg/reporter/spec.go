package reporter

import (
	"io"
	"os"
	"time"

	"github.com/guxg/colossus/pkg/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Sink types of Spec.
const (
	SinkTypePrometheus = "prometheus"
	SinkTypeLog        = "log"
	SinkTypeYAML       = "yaml"
)

// Spec is the serializable configuration of a reporter.
type Spec struct {
	// Name identifies the reporter. Defaults to the sink type.
	Name string `yaml:"name"`

	// Sink is one of "prometheus", "log" and "yaml".
	Sink string `yaml:"sink"`

	// Interval is the minimal time between exports. Zero exports on
	// every tick.
	Interval time.Duration `yaml:"interval"`

	// Filter is an optional filter expression, e.g. "svc/**{zone=a}".
	Filter string `yaml:"filter"`

	// Prefix is prepended to Prometheus metric names.
	Prefix string `yaml:"prefix"`

	// Output is the file the yaml sink appends to. Empty or "-" selects
	// stdout.
	Output string `yaml:"output"`
}

// Build creates the reporter configuration described by the spec.
// The returned closer releases resources of the sink and must be called
// after the reporter stopped.
func (s Spec) Build(logger *zap.Logger) (Config, io.Closer, error) {
	cfg := Config{
		Name:     s.Name,
		Interval: s.Interval,
	}
	if cfg.Name == "" {
		cfg.Name = s.Sink
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Filter != "" {
		f, err := address.ParseFilter(s.Filter)
		if err != nil {
			return Config{}, nil, errors.Wrapf(err, "reporter %q", cfg.Name)
		}
		cfg.Filter = &f
	}

	var closer io.Closer = nopCloser{}
	switch s.Sink {
	case SinkTypePrometheus:
		cfg.Sink = NewPrometheusSink(s.Prefix)
	case SinkTypeLog:
		cfg.Sink = NewLogSink(logger.Named(cfg.Name))
	case SinkTypeYAML:
		var w io.Writer = os.Stdout
		var file *os.File
		if s.Output != "" && s.Output != "-" {
			var err error
			file, err = os.OpenFile(s.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return Config{}, nil, errors.Wrapf(err, "reporter %q: cannot open output", cfg.Name)
			}
			w = file
		}
		sink := NewYAMLSink(w)
		cfg.Sink = sink
		closer = yamlCloser{sink: sink, file: file}
	default:
		return Config{}, nil, errors.Errorf("reporter %q: unknown sink type %q", cfg.Name, s.Sink)
	}
	return cfg, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type yamlCloser struct {
	sink *YAMLSink
	file *os.File
}

func (c yamlCloser) Close() error {
	err := c.sink.Close()
	if c.file != nil {
		if fileErr := c.file.Close(); err == nil {
			err = fileErr
		}
	}
	return err
}
