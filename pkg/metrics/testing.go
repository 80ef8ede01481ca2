package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// Testing groups test helpers of this package. Not for production use.
type Testing struct{}

// PatchRegistry installs a fresh pedantic registry for the duration of
// test t and returns it. Pipeline metrics created afterwards register
// there. The original registry is restored on test cleanup; a patch that
// was itself patched over in the meantime panics on restore.
func (Testing) PatchRegistry(t testing.TB) *prometheus.Registry {
	t.Helper()
	replacement := prometheus.NewPedanticRegistry()
	original := registry
	registry = replacement
	t.Cleanup(func() {
		if registry != replacement {
			panic("cannot restore metrics registry: it was replaced again and not restored")
		}
		registry = original
	})
	return replacement
}
