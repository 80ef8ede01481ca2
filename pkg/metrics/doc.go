/*

Package metrics provides the self-observability metrics of the metrics
pipeline itself:

-   the Prometheus registry for pipeline metrics
-   exporting pipeline metrics via HTTP
-   tick, snapshot, error and retry metrics

These metrics describe the health of the pipeline (tick durations, dropped
contributions, export retries). They are independent of the application
metrics flowing through the pipeline.


Global State

The API of this package makes use of global state to get access to instances so
that keeping and passing references is not necessary. For non-test use cases
this perfectly fits to the global nature of metric support.

Tests that need to inspect pipeline metrics patch the registry during test
setup and revert the patch at teardown. Such tests must not run in parallel
with other tests. See the Testing type for test support.

*/
package metrics
