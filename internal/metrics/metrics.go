package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reward sources recorded on rewards_issued_total.
const (
	SourceReferral = "referral"
	SourceManual   = "manual"
)

// Import outcomes recorded on customer_import_rows_total.
const (
	OutcomeImported = "imported"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Metrics holds the business counters of the referral program.
type Metrics struct {
	referralsCreated prometheus.Counter
	transitions      *prometheus.CounterVec
	rewardsIssued    *prometheus.CounterVec
	importRows       *prometheus.CounterVec
	codeAttempts     prometheus.Histogram
	httpDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		referralsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referrals_created_total",
			Help: "Referrals registered against a referral code.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "referral_transitions_total",
			Help: "Referrals moved into a new status.",
		}, []string{"status", "mode"}),
		rewardsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rewards_issued_total",
			Help: "Rewards created, by origin.",
		}, []string{"source"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_import_rows_total",
			Help: "Customer import rows by outcome.",
		}, []string{"outcome"}),
		codeAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "referral_code_generation_attempts",
			Help:    "Attempts needed to find a free referral code.",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100},
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}
	reg.MustRegister(m.referralsCreated, m.transitions, m.rewardsIssued, m.importRows, m.codeAttempts, m.httpDuration)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ReferralCreated() {
	m.referralsCreated.Inc()
}

// Transitioned records n referrals moved into status; mode is "single" or "bulk".
func (m *Metrics) Transitioned(status, mode string, n int) {
	m.transitions.WithLabelValues(status, mode).Add(float64(n))
}

func (m *Metrics) RewardsIssued(source string, n int) {
	m.rewardsIssued.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) ImportRows(outcome string, n int) {
	m.importRows.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) CodeAttempts(n int) {
	m.codeAttempts.Observe(float64(n))
}

// ObserveRequest records one served request. route should be the mux pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
