// Package metrics defines the Prometheus collectors exported by the cup
// services. A nil *Metrics is valid and records nothing, so components
// can be built without a registry in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wordle_cup"

// Metrics groups every collector of the service.
type Metrics struct {
	scoresRecorded  *prometheus.CounterVec
	messagesIgnored *prometheus.CounterVec
	medalChanges    prometheus.Counter
	eventsPublished *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	cupRollovers    *prometheus.CounterVec
	chatRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scoresRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_recorded_total",
			Help:      "Result submissions by outcome.",
		}, []string{"outcome"}),
		messagesIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_rejected_total",
			Help:      "Chat messages that looked like results but failed to parse.",
		}, []string{"reason"}),
		medalChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "medal_changes_total",
			Help:      "Times a daily high score changed.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events published on the bus.",
		}, []string{"event_type"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_handler_duration_seconds",
			Help:      "Event handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type", "status"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by status.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Scheduled job duration.",
			Buckets:   []float64{.05, .1, .5, 1, 5, 15, 60},
		}, []string{"job"}),
		cupRollovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cup_rollovers_total",
			Help:      "Cup rollover checks by outcome.",
		}, []string{"outcome"}),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Calls to the chat platform API.",
		}, []string{"method", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.scoresRecorded,
			m.messagesIgnored,
			m.medalChanges,
			m.eventsPublished,
			m.handlerDuration,
			m.jobRuns,
			m.jobDuration,
			m.cupRollovers,
			m.chatRequests,
		)
	}
	return m
}

// ScoreRecorded counts a submission outcome ("inserted", "duplicate", "failed").
func (m *Metrics) ScoreRecorded(outcome string) {
	if m == nil {
		return
	}
	m.scoresRecorded.WithLabelValues(outcome).Inc()
}

// MessageRejected counts a message that failed to parse.
func (m *Metrics) MessageRejected(reason string) {
	if m == nil {
		return
	}
	m.messagesIgnored.WithLabelValues(reason).Inc()
}

// MedalsChanged counts a change of a daily high score.
func (m *Metrics) MedalsChanged() {
	if m == nil {
		return
	}
	m.medalChanges.Inc()
}

// EventPublished counts a published event.
func (m *Metrics) EventPublished(eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

// HandlerExecuted records the latency of an event handler.
func (m *Metrics) HandlerExecuted(eventType string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.handlerDuration.WithLabelValues(eventType, status(err)).Observe(d.Seconds())
}

// JobExecuted records a scheduled job run.
func (m *Metrics) JobExecuted(job string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, status(err)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// CupRollover counts a rollover check outcome ("adopted", "unchanged", "advanced", "lost").
func (m *Metrics) CupRollover(outcome string) {
	if m == nil {
		return
	}
	m.cupRollovers.WithLabelValues(outcome).Inc()
}

// ChatRequest counts a chat platform API call.
func (m *Metrics) ChatRequest(method string, err error) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(method, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
