// Package metrics provides build metrics for sitebake.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless enabled:
//
//	service := build.NewBuildService(fsys) // NoopRecorder
//	service.WithRecorder(metrics.NewPrometheusRecorder(nil))
//
// A one-shot CLI has no scrape endpoint, so PrometheusRecorder.WriteTextfile
// dumps the collected series after the build for a node exporter textfile
// collector to pick up.
package metrics
