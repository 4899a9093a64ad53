package replication

// MetricsSink receives engine instrumentation. The default World uses a
// no-op sink; internal/replication/metrics provides a Prometheus-backed
// implementation (SPEC_FULL.md §B/§D.1).
type MetricsSink interface {
	ObserveQuery(resultCount int, overflow bool)
	ObserveWrite(owner int64, bytesWritten, shortfall int)
	ObserveRead(owner int64, bytesRead int, status Status)
	ObserveReject(kind EventKind)
}

type noopMetrics struct{}

func (noopMetrics) ObserveQuery(int, bool)         {}
func (noopMetrics) ObserveWrite(int64, int, int)   {}
func (noopMetrics) ObserveRead(int64, int, Status) {}
func (noopMetrics) ObserveReject(EventKind)        {}
