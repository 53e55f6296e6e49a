// Package metrics provides generation metrics for docgen.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder. When a metrics textfile path is configured the CLI swaps in a
// PrometheusRecorder and writes the gathered values after each run with
// WriteTextfile, which is how one-shot tools feed the node_exporter textfile
// collector.
package metrics
