// Package metrics provides build and stage metrics for cargo-vitasdk.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks:
//
//	p := pipeline.New(tc, runner, oracle, pipeline.WithRecorder(metrics.NoopRecorder{}))
//
// A cargo build is a short-lived process, so PrometheusRecorder is not scraped
// over HTTP. When output.metrics_file is configured the registry is written
// once after the build with WriteTextfile, in the format read by the
// node_exporter textfile collector.
package metrics
