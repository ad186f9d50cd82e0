package metrics

import (
	"net/http"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// WriteTextfile writes every metric in reg to path in the text exposition
// format, for collection by node_exporter's textfile collector.
func WriteTextfile(reg *prom.Registry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.FileSystemError("create metrics directory").
			WithCause(err).WithContext("path", path).Build()
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return ferrors.FileSystemError("write metrics textfile").
			WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
