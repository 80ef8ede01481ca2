/*
Package reporter exports metric snapshots to external systems.

A Reporter is a tick listener. On a tick it hands the current snapshot to
its export goroutine and returns immediately, so slow sinks never delay the
pipeline. Failed exports are retried with backoff if the sink marks the
failure as retryable; all other failures are reported and dropped.
*/
package reporter
