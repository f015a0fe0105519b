package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitekeeper"

// PrometheusRecorder implements Recorder on a Prometheus registry.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	runDuration   *prom.HistogramVec
	pages         *prom.CounterVec
	linkChecks    *prom.CounterVec
	findings      *prom.CounterVec
	auditScore    prom.Gauge
	submissions   *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual page pipeline stages",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total command duration",
			Buckets:   prom.DefBuckets,
		}, []string{"command"}),
		pages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "HTML pages processed by outcome",
		}, []string{"outcome"}),
		linkChecks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "external_link_checks_total",
			Help:      "External link HEAD checks by result",
		}, []string{"result"}),
		findings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "audit_findings_total",
			Help:      "Audit findings by kind",
		}, []string{"kind"}),
		auditScore: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_score",
			Help:      "Score of the last audit run",
		}),
		submissions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Search engine submissions by endpoint and result",
		}, []string{"endpoint", "result"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.pages,
		pr.linkChecks, pr.findings, pr.auditScore, pr.submissions)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(command string, d time.Duration) {
	p.runDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPage(outcome PageOutcome) {
	p.pages.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncLinkCheck(broken bool) {
	p.linkChecks.WithLabelValues(okLabel(!broken, "ok", "broken")).Inc()
}

func (p *PrometheusRecorder) IncFinding(kind string) {
	p.findings.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) SetAuditScore(score int) {
	p.auditScore.Set(float64(score))
}

func (p *PrometheusRecorder) IncSubmission(endpoint string, success bool) {
	p.submissions.WithLabelValues(endpoint, okLabel(success, "success", "failed")).Inc()
}

func okLabel(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

// WriteTextfile writes everything gathered from g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prom.Gatherer) error {
	return prom.WriteToTextfile(path, g)
}
