package errors

import (
	"github.com/guxg/colossus/pkg/metrics"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
)

// Report records a non-fatal pipeline failure. It counts err by its class
// and passes it to the apimachinery error handlers, which log it rate
// limited. Nil errors are ignored.
func Report(err error) {
	if err == nil {
		return
	}
	metrics.PipelineErrors.Inc(string(GetClass(err)))
	utilruntime.HandleError(err)
}
