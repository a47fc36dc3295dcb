// Package metrics records build metrics for cbuild.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks at call sites:
//
//	driver := project.NewDriver(project.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// A one-shot build exports the registry with WriteTextfile; watch mode serves
// it over HTTP with HTTPHandler.
package metrics
