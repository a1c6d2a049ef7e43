// Package metrics records build and stage measurements.
//
// Components receive a Recorder and default to NoopRecorder, so no call site
// needs a nil check. PrometheusRecorder backs the interface with
// client_golang collectors; the CLI exports them to a node-exporter textfile
// after a build when --metrics-file is set.
package metrics
