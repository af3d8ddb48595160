// Package sysmon samples host CPU and memory load for display next to a
// running calibration.
package sysmon

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats is one snapshot of host-wide resource usage, in percent.
type Stats struct {
	CPUPercent float64
	MemPercent float64
}

// String renders the snapshot for a status bar.
func (s Stats) String() string {
	return fmt.Sprintf("CPU %3.0f%%  MEM %3.0f%%", s.CPUPercent, s.MemPercent)
}

// Replaced in tests.
var (
	cpuPercent = func() ([]float64, error) { return cpu.Percent(0, false) }
	memPercent = func() (float64, error) {
		v, err := mem.VirtualMemory()
		if err != nil || v == nil {
			return 0, err
		}
		return v.UsedPercent, nil
	}
)

// Sample takes a snapshot. CPU load is the delta since the previous call;
// a source that fails reports zero.
func Sample() Stats {
	var s Stats
	if pcts, err := cpuPercent(); err == nil && len(pcts) > 0 {
		s.CPUPercent = clamp(pcts[0])
	}
	if p, err := memPercent(); err == nil {
		s.MemPercent = clamp(p)
	}
	return s
}

func clamp(p float64) float64 {
	return min(max(p, 0), 100)
}
