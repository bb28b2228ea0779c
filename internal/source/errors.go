package source

import "codeberg.org/mutker/scrapster/internal/errors"

const (
	ErrReadCPU     = errors.ErrorCode("source_cpu_read_failed")
	ErrReadMemory  = errors.ErrorCode("source_memory_read_failed")
	ErrReadLoad    = errors.ErrorCode("source_load_read_failed")
	ErrReadUptime  = errors.ErrorCode("source_uptime_read_failed")
	ErrReadDisk    = errors.ErrorCode("source_disk_read_failed")
	ErrReadNetwork = errors.ErrorCode("source_network_read_failed")
	ErrReadThermal = errors.ErrorCode("source_thermal_read_failed")
	ErrNoCPU       = errors.ErrorCode("source_no_cpu_times")
)
