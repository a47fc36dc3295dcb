package metrics

import (
	"net/http"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
)

// HTTPHandler serves reg on /metrics and a liveness probe on /healthz for
// watch mode. A nil reg serves the process-wide default registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	metricsHandler := promhttp.Handler()
	if reg != nil {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// WriteTextfile writes reg to path in the Prometheus text format for the
// node_exporter textfile collector, creating the parent directory. The file
// is replaced atomically.
func WriteTextfile(path string, reg *prom.Registry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.FileSystemError("could not create metrics directory").WithCause(err).WithContext("path", path).Build()
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return ferrors.FileSystemError("could not write metrics file").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
