package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gotest.tools/v3/assert"
)

func Test_exportsMetric_Observe(t *testing.T) {
	// no parallel: patching global state

	// SETUP
	reg := Testing{}.PatchRegistry(t)
	examinee := &exportsMetric{}
	examinee.init()

	// EXERCISE
	examinee.Observe("prom", ExportSucceeded, 0, 10*time.Millisecond)
	examinee.Observe("prom", ExportSucceeded, 2, 300*time.Millisecond)
	examinee.Observe("log", ExportFailed, 5, time.Second)
	examinee.Observe("log", ExportAbandoned, 1, time.Second)

	// VERIFY
	expected := `
# HELP colossus_exports_total The number of snapshot exports finished by reporters, by outcome.
# TYPE colossus_exports_total counter
colossus_exports_total{outcome="abandoned",reporter="log"} 1
colossus_exports_total{outcome="failed",reporter="log"} 1
colossus_exports_total{outcome="succeeded",reporter="prom"} 2
`
	assert.NilError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "colossus_exports_total"))

	assert.Equal(t, testutil.CollectAndCount(examinee.retries), 2)
	assert.Equal(t, testutil.CollectAndCount(examinee.durationMetric), 3)
}

func Test_exportsMetric_NoRetriesNotObservedAsRetry(t *testing.T) {
	// no parallel: patching global state

	// SETUP
	reg := Testing{}.PatchRegistry(t)
	examinee := &exportsMetric{}
	examinee.init()

	// EXERCISE
	examinee.Observe("log", ExportSucceeded, 0, time.Second)

	// VERIFY
	count, err := testutil.GatherAndCount(reg, "colossus_export_retries")
	assert.NilError(t, err)
	assert.Equal(t, count, 0)
	assert.Equal(t, testutil.ToFloat64(examinee.total.WithLabelValues("log", string(ExportSucceeded))), 1.0)
}
