package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "paystream_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	operationTotal   *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec

	withdrawnAmount prometheus.Counter
	refundedAmount  prometheus.Counter

	statementExportTotal   *prometheus.CounterVec
	statementExportLatency *prometheus.HistogramVec

	outboxDispatchTotal   *prometheus.CounterVec
	outboxDispatchLatency *prometheus.HistogramVec
	outboxSentTotal       prometheus.Counter
	outboxFailedTotal     prometheus.Counter
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		operationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operations_total",
				Help: "Total stream operations by name and result",
			},
			[]string{"operation", "result"},
		)
		operationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "operation_latency_seconds",
				Help:    "Stream operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)

		withdrawnAmount = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "withdrawn_units_total",
				Help: "Total units paid out to recipients",
			},
		)
		refundedAmount = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "refunded_units_total",
				Help: "Total units refunded to senders on cancellation",
			},
		)

		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement export operations by format and result",
			},
			[]string{"format", "result"},
		)
		statementExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		outboxDispatchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "outbox_dispatch_total",
				Help: "Total outbox dispatch cycles by result",
			},
			[]string{"result"},
		)
		outboxDispatchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "outbox_dispatch_latency_seconds",
				Help:    "Outbox dispatch cycle latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		outboxSentTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "outbox_sent_total",
				Help: "Total outbox records delivered",
			},
		)
		outboxFailedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "outbox_failed_total",
				Help: "Total outbox records that failed delivery",
			},
		)

		prometheus.MustRegister(
			operationTotal,
			operationLatency,
			withdrawnAmount,
			refundedAmount,
			statementExportTotal,
			statementExportLatency,
			outboxDispatchTotal,
			outboxDispatchLatency,
			outboxSentTotal,
			outboxFailedTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveOperation records a stream operation's latency and result.
func ObserveOperation(operation, result string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if operationTotal != nil {
		operationTotal.WithLabelValues(operation, result).Inc()
	}
	if operationLatency != nil {
		operationLatency.WithLabelValues(operation, result).Observe(duration.Seconds())
	}
}

// AddWithdrawn adds paid-out units to the payout counter.
func AddWithdrawn(amount int64) {
	if amount <= 0 {
		return
	}
	if withdrawnAmount != nil {
		withdrawnAmount.Add(float64(amount))
	}
}

// AddRefunded adds refunded units to the refund counter.
func AddRefunded(amount int64) {
	if amount <= 0 {
		return
	}
	if refundedAmount != nil {
		refundedAmount.Add(float64(amount))
	}
}

// ObserveStatementExport records export latency and result.
func ObserveStatementExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if statementExportTotal != nil {
		statementExportTotal.WithLabelValues(format, result).Inc()
	}
	if statementExportLatency != nil {
		statementExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveOutboxDispatch records a dispatch cycle and its delivery counts.
func ObserveOutboxDispatch(result string, duration time.Duration, sent, failed int) {
	if result == "" {
		result = resultSuccess
	}
	if outboxDispatchTotal != nil {
		outboxDispatchTotal.WithLabelValues(result).Inc()
	}
	if outboxDispatchLatency != nil {
		outboxDispatchLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if sent > 0 && outboxSentTotal != nil {
		outboxSentTotal.Add(float64(sent))
	}
	if failed > 0 && outboxFailedTotal != nil {
		outboxFailedTotal.Add(float64(failed))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
