// Package metrics records sitekeeper run metrics.
//
// Components take a Recorder and default to NoopRecorder. The CLI swaps in a
// PrometheusRecorder when --metrics-file is set and writes the registry in
// node_exporter textfile format once the command finishes:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run the command with rec ...
//	_ = metrics.WriteTextfile(path, reg)
package metrics
