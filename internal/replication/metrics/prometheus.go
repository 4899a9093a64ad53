// Package metrics provides a Prometheus-backed replication.MetricsSink.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/replicad/internal/replication"
)

// Prometheus реализует replication.MetricsSink, регистрируя метрики
// движка реплики в переданном registerer. Используется хостом вместо
// no-op синка по умолчанию.
//
// Метрики:
// * replication_query_results        — histogram размера ответа Query
// * replication_query_overflow_total — counter переполнений Query
// * replication_write_bytes          — histogram байт, отданных Write
// * replication_write_shortfall_bytes — histogram недостачи буфера Write
// * replication_read_bytes           — histogram байт, принятых Read
// * replication_read_errors_total    — counter ошибок Read по статусу
// * replication_reject_total         — counter отклонений колбэков по типу события
type Prometheus struct {
	queryResults  prometheus.Histogram
	queryOverflow prometheus.Counter
	writeBytes    prometheus.Histogram
	writeShort    prometheus.Histogram
	readBytes     prometheus.Histogram
	readErrors    *prometheus.CounterVec
	rejects       *prometheus.CounterVec
}

// New создаёт Prometheus-синк с заданным namespace и регистрирует его
// метрики в reg (обычно prometheus.DefaultRegisterer).
func New(namespace string, reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		queryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replication_query_results",
			Help:      "Размер результата Query в количестве сущностей.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 14),
		}),
		queryOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replication_query_overflow_total",
			Help:      "Число вызовов Query, усечённых по MaxQueryResults.",
		}),
		writeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replication_write_bytes",
			Help:      "Байт, записанных за один вызов Write.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 16),
		}),
		writeShort: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replication_write_shortfall_bytes",
			Help:      "Оценочная недостача буфера Write, в байтах.",
			Buckets:   prometheus.ExponentialBuckets(12, 2, 12),
		}),
		readBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replication_read_bytes",
			Help:      "Байт, принятых за один вызов Read.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 16),
		}),
		readErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replication_read_errors_total",
			Help:      "Число вызовов Read, завершившихся ошибкой, по коду статуса.",
		}, []string{"status"}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replication_reject_total",
			Help:      "Число отклонений колбэков Write, по типу события.",
		}, []string{"event"}),
	}
	reg.MustRegister(p.queryResults, p.queryOverflow, p.writeBytes, p.writeShort, p.readBytes, p.readErrors, p.rejects)
	return p
}

func (p *Prometheus) ObserveQuery(resultCount int, overflow bool) {
	p.queryResults.Observe(float64(resultCount))
	if overflow {
		p.queryOverflow.Inc()
	}
}

func (p *Prometheus) ObserveWrite(owner int64, bytesWritten, shortfall int) {
	p.writeBytes.Observe(float64(bytesWritten))
	if shortfall > 0 {
		p.writeShort.Observe(float64(shortfall))
	}
}

func (p *Prometheus) ObserveRead(owner int64, bytesRead int, status replication.Status) {
	p.readBytes.Observe(float64(bytesRead))
	if status.IsError() {
		p.readErrors.WithLabelValues(strconv.Itoa(int(status))).Inc()
	}
}

func (p *Prometheus) ObserveReject(kind replication.EventKind) {
	p.rejects.WithLabelValues(kind.String()).Inc()
}

var _ replication.MetricsSink = (*Prometheus)(nil)
