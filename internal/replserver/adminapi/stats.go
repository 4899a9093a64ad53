package adminapi

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// processStats reports the adminapi process's own resource usage via
// gopsutil, surfaced through /healthz.
type processStats struct {
	startedAt time.Time
}

func newProcessStats() *processStats {
	return &processStats{startedAt: time.Now()}
}

func (p *processStats) uptime() time.Duration {
	return time.Since(p.startedAt)
}

// cpuPercent returns the process's CPU usage percent averaged over its
// lifetime so far, falling back to a system-wide sample if the per-process
// figure isn't available on this platform.
func (p *processStats) cpuPercent() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	if pct, err := proc.CPUPercent(); err == nil {
		return pct, nil
	}
	pcts, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(pcts) == 0 {
		return 0, err
	}
	return pcts[0], nil
}
