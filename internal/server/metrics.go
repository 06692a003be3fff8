package server

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts parse outcomes across all connections
type Metrics struct {
	RequestsTotal     atomic.Int64
	RetriesTotal      atomic.Int64
	RejectedTotal     atomic.Int64
	HeadersDropped    atomic.Int64
	ActiveConnections atomic.Int64

	// Time spent inside the parser for completed requests
	TotalParseNs atomic.Int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordParsed records a completed request
func (m *Metrics) RecordParsed(dropped int, took time.Duration) {
	m.RequestsTotal.Add(1)
	m.HeadersDropped.Add(int64(dropped))
	m.TotalParseNs.Add(took.Nanoseconds())
}

// RecordRetry records a parse that asked for more data
func (m *Metrics) RecordRetry() {
	m.RetriesTotal.Add(1)
}

// RecordRejected records input turned away with an error response
func (m *Metrics) RecordRejected() {
	m.RejectedTotal.Add(1)
}

// AverageParseTime returns the mean parse time of completed requests
func (m *Metrics) AverageParseTime() time.Duration {
	total := m.RequestsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.TotalParseNs.Load() / total)
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	RequestsTotal     int64
	RetriesTotal      int64
	RejectedTotal     int64
	HeadersDropped    int64
	ActiveConnections int64
	AverageParseTime  time.Duration
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsTotal:     m.RequestsTotal.Load(),
		RetriesTotal:      m.RetriesTotal.Load(),
		RejectedTotal:     m.RejectedTotal.Load(),
		HeadersDropped:    m.HeadersDropped.Load(),
		ActiveConnections: m.ActiveConnections.Load(),
		AverageParseTime:  m.AverageParseTime(),
	}
}

var (
	descRequests = prometheus.NewDesc(
		prometheus.BuildFQName("httpscan", "parser", "requests_total"),
		"Requests parsed successfully.", nil, nil)
	descRetries = prometheus.NewDesc(
		prometheus.BuildFQName("httpscan", "parser", "retries_total"),
		"Parses that needed more data and were retried.", nil, nil)
	descRejected = prometheus.NewDesc(
		prometheus.BuildFQName("httpscan", "parser", "rejected_total"),
		"Requests rejected as malformed or oversized.", nil, nil)
	descDropped = prometheus.NewDesc(
		prometheus.BuildFQName("httpscan", "parser", "headers_dropped_total"),
		"Header lines scanned but not stored for lack of capacity.", nil, nil)
	descActive = prometheus.NewDesc(
		prometheus.BuildFQName("httpscan", "server", "active_connections"),
		"Connections currently open.", nil, nil)
	descParseSeconds = prometheus.NewDesc(
		prometheus.BuildFQName("httpscan", "parser", "parse_seconds_total"),
		"Time spent parsing completed requests.", nil, nil)
)

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRequests
	ch <- descRetries
	ch <- descRejected
	ch <- descDropped
	ch <- descActive
	ch <- descParseSeconds
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(descRequests, prometheus.CounterValue, float64(m.RequestsTotal.Load()))
	ch <- prometheus.MustNewConstMetric(descRetries, prometheus.CounterValue, float64(m.RetriesTotal.Load()))
	ch <- prometheus.MustNewConstMetric(descRejected, prometheus.CounterValue, float64(m.RejectedTotal.Load()))
	ch <- prometheus.MustNewConstMetric(descDropped, prometheus.CounterValue, float64(m.HeadersDropped.Load()))
	ch <- prometheus.MustNewConstMetric(descActive, prometheus.GaugeValue, float64(m.ActiveConnections.Load()))
	ch <- prometheus.MustNewConstMetric(descParseSeconds, prometheus.CounterValue, time.Duration(m.TotalParseNs.Load()).Seconds())
}
