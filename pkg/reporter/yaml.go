package reporter

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/snapshot"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YAMLSink writes every exported snapshot as a YAML document.
type YAMLSink struct {
	mutex   sync.Mutex
	encoder *yaml.Encoder
}

type yamlSnapshot struct {
	Version uint64       `yaml:"version"`
	Taken   time.Time    `yaml:"taken"`
	Metrics []yamlMetric `yaml:"metrics"`
}

type yamlMetric struct {
	Address   string            `yaml:"address"`
	Tags      map[string]string `yaml:"tags,omitempty"`
	Kind      string            `yaml:"kind"`
	Value     *float64          `yaml:"value,omitempty"`
	Histogram *yamlHistogram    `yaml:"histogram,omitempty"`
}

type yamlHistogram struct {
	Bounds []float64 `yaml:"bounds,flow"`
	Counts []uint64  `yaml:"counts,flow"`
	Count  uint64    `yaml:"count"`
	Sum    float64   `yaml:"sum"`
	Min    float64   `yaml:"min"`
	Max    float64   `yaml:"max"`
}

// NewYAMLSink creates a sink writing to w.
func NewYAMLSink(w io.Writer) *YAMLSink {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	return &YAMLSink{encoder: encoder}
}

// Export implements Sink.
func (s *YAMLSink) Export(_ context.Context, snap *snapshot.Snapshot) error {
	doc := yamlSnapshot{
		Version: snap.Version,
		Taken:   snap.Taken.UTC(),
		Metrics: make([]yamlMetric, 0, snap.Metrics.Len()),
	}
	for _, e := range snap.Metrics.Entries() {
		m := yamlMetric{
			Address: e.Address.String(),
			Kind:    e.Value.Kind().String(),
		}
		if !e.Tags.IsEmpty() {
			m.Tags = e.Tags.Map()
		}
		switch v := e.Value.(type) {
		case metric.CounterValue:
			m.Value = float64Ptr(float64(v))
		case metric.GaugeValue:
			m.Value = float64Ptr(float64(v))
		case metric.RateValue:
			m.Value = float64Ptr(float64(v.Hits))
		case metric.HistogramValue:
			m.Histogram = &yamlHistogram{
				Bounds: v.Bounds,
				Counts: v.Counts,
				Count:  v.Count,
				Sum:    v.Sum,
				Min:    v.Min,
				Max:    v.Max,
			}
		}
		doc.Metrics = append(doc.Metrics, m)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.encoder.Encode(doc); err != nil {
		return errors.Wrapf(err, "writing snapshot %d failed", snap.Version)
	}
	return nil
}

// Close finishes the YAML stream.
func (s *YAMLSink) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.encoder.Close()
}

func float64Ptr(f float64) *float64 {
	return &f
}
