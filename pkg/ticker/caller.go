package ticker

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// callerName names the function calling the function that calls
// callerName, e.g. "ticker.Test_X (ticker_test.go:12)".
func callerName() string {
	pc := make([]uintptr, 1)
	// skip runtime.Callers, callerName and its caller
	if runtime.Callers(3, pc) == 0 {
		return "<unknown>"
	}
	frame, _ := runtime.CallersFrames(pc).Next()
	if frame.Function == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s (%s:%d)", filepath.Base(frame.Function), filepath.Base(frame.File), frame.Line)
}
