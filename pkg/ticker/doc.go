// Package ticker provides the clock driving the metrics pipeline.
package ticker
