package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	klog "k8s.io/klog/v2"
)

// StartServer starts the HTTP server providing the pipeline metrics for
// scraping at "/metrics". Additional handlers, e.g. for exported
// application metrics, can be mounted via extra. The server is shut down
// when ctx is done.
func StartServer(ctx context.Context, port uint16, extra map[string]http.Handler) {
	serveMux := http.NewServeMux()
	serveMux.Handle("/metrics", promhttp.HandlerFor(Gatherer(), promhttp.HandlerOpts{}))
	for pattern, handler := range extra {
		serveMux.Handle(pattern, handler)
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           serveMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			klog.ErrorS(err, "metrics server shutdown failed")
		}
	}()

	go func() {
		for {
			err := server.ListenAndServe()
			if err == http.ErrServerClosed {
				break
			}
			if err != nil {
				klog.ErrorS(err, "metrics server terminated unexpectedly and will be restarted")
				time.Sleep(time.Second)
			}
		}
	}()
}
