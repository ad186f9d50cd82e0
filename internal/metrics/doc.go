// Package metrics records build metrics for stmdocs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	b := builder.New(cfg) // NoopRecorder
//	b = b.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A PrometheusRecorder can be exported two ways: WriteTextfile dumps the
// registry in the node_exporter textfile format after a one-shot build, and
// HTTPHandler serves it while the preview server is running.
package metrics
