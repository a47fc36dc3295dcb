package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "cbuild"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	targetDuration  *prom.HistogramVec
	targetResults   *prom.CounterVec
	compileDuration *prom.HistogramVec
	linkResults     *prom.CounterVec
	scanFailures    *prom.CounterVec
	staleSources    *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total project build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Project build outcomes by final status",
		}, []string{"outcome"})
		pr.targetDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "target_duration_seconds",
			Help:      "Duration of individual executable target builds",
			Buckets:   prom.DefBuckets,
		}, []string{"target"})
		pr.targetResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "target_results_total",
			Help:      "Target results by outcome",
		}, []string{"target", "result"})
		pr.compileDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of single translation unit compiles",
			Buckets:   prom.DefBuckets,
		}, []string{"target", "result"})
		pr.linkResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "link_results_total",
			Help:      "Link invocations by success/failure",
		}, []string{"target", "result"})
		pr.scanFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "dependency_scan_failures_total",
			Help:      "Dependency scans that failed or returned malformed output",
		}, []string{"target"})
		pr.staleSources = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "stale_sources",
			Help:      "Sources found stale in the last build of a target",
		}, []string{"target"})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.targetDuration, pr.targetResults,
			pr.compileDuration, pr.linkResults, pr.scanFailures, pr.staleSources)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveTargetDuration(target string, d time.Duration) {
	if p == nil || p.targetDuration == nil {
		return
	}
	p.targetDuration.WithLabelValues(target).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTargetResult(target string, result ResultLabel) {
	if p == nil || p.targetResults == nil {
		return
	}
	p.targetResults.WithLabelValues(target, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveCompileDuration(target string, d time.Duration, success bool) {
	if p == nil || p.compileDuration == nil {
		return
	}
	p.compileDuration.WithLabelValues(target, resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLinkResult(target string, success bool) {
	if p == nil || p.linkResults == nil {
		return
	}
	p.linkResults.WithLabelValues(target, resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncScanFailure(target string) {
	if p == nil || p.scanFailures == nil {
		return
	}
	p.scanFailures.WithLabelValues(target).Inc()
}

func (p *PrometheusRecorder) SetStaleSources(target string, n int) {
	if p == nil || p.staleSources == nil {
		return
	}
	p.staleSources.WithLabelValues(target).Set(float64(n))
}
