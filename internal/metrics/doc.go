// Package metrics records build and live reload metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// need no nil checks at the call sites:
//
//	orch := build.NewOrchestrator(project, build.WithRecorder(metrics.NoopRecorder{}))
//
// `doxidize serve --metrics` swaps in a PrometheusRecorder and mounts
// HTTPHandler on /metrics of the preview server.
package metrics
