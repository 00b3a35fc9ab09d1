package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/pos-ledger/internal/domain"
)

// LedgerMetrics métricas de las operaciones del motor de stock.
// Todos los métodos aceptan receptor nil (métricas desactivadas o tests).
type LedgerMetrics struct {
	duration      *prometheus.HistogramVec
	operations    *prometheus.CounterVec
	oversells     *prometheus.CounterVec
	notifyFailure *prometheus.CounterVec
	jobs          *prometheus.CounterVec
}

// NewLedgerMetrics registra las métricas en reg. Con reg nil devuelve un valor inerte.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duración de las operaciones del ledger de stock.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Operaciones del ledger por resultado.",
	}, []string{"operation", "result"})
	oversells := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_oversell_total",
		Help: "Movimientos que dejaron la existencia en negativo.",
	}, []string{"operation"})
	notifyFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_notification_failures_total",
		Help: "Notificaciones post-commit que fallaron.",
	}, []string{"kind"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_jobs_total",
		Help: "Jobs de notificación procesados por el worker.",
	}, []string{"result"})
	reg.MustRegister(duration, operations, oversells, notifyFailure, jobs)
	return &LedgerMetrics{
		duration:      duration,
		operations:    operations,
		oversells:     oversells,
		notifyFailure: notifyFailure,
		jobs:          jobs,
	}
}

// ObserveOperation registra duración y resultado de una operación.
func (m *LedgerMetrics) ObserveOperation(op string, started time.Time, err error) {
	if m == nil || m.duration == nil {
		return
	}
	op = normalizeLabel(op)
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	m.operations.WithLabelValues(op, Result(err)).Inc()
}

// IncOversell cuenta un movimiento que dejó stock negativo.
func (m *LedgerMetrics) IncOversell(op string) {
	if m == nil || m.oversells == nil {
		return
	}
	m.oversells.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncNotificationFailure cuenta un aviso post-commit fallido.
func (m *LedgerMetrics) IncNotificationFailure(kind string) {
	if m == nil || m.notifyFailure == nil {
		return
	}
	m.notifyFailure.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncJob cuenta un job del worker de notificaciones (ok, failed, dead_letter).
func (m *LedgerMetrics) IncJob(result string) {
	if m == nil || m.jobs == nil {
		return
	}
	m.jobs.WithLabelValues(normalizeLabel(result)).Inc()
}

// Result clasifica el error para la etiqueta result.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidReference),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrSameBranchTransfer),
		errors.Is(err, domain.ErrReturnExceedsOriginal):
		return "rejected"
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrOriginalSaleNotFound),
		errors.Is(err, domain.ErrStockNotFound),
		errors.Is(err, domain.ErrSourceStockNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
