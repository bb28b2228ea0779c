package source

// CPUTimes holds cumulative per-mode CPU time in clock ticks, summed
// over all CPUs. Guest time is already contained in User and Nice.
type CPUTimes struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
}

// Total is the sum of all modes.
func (t CPUTimes) Total() uint64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ + t.Steal
}

// CPUStat is the CPU reader's result.
type CPUStat struct {
	Times           CPUTimes
	ContextSwitches uint64 // cumulative
	RunQueue        uint64 // runnable tasks right now
}

// Memory is the memory reader's result. Faults are cumulative.
type Memory struct {
	Total       uint64
	Used        uint64
	MinorFaults uint64
	MajorFaults uint64
}

// Load holds the 1, 5 and 15 minute load averages.
type Load struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// IOCounter is a cumulative byte pair for one device or interface.
// In is bytes read or received, Out is bytes written or transmitted.
type IOCounter struct {
	In  uint64
	Out uint64
}

// Thermal is the CPU temperature and firmware throttle reading.
type Thermal struct {
	Temperature float64 // celsius
	Throttle    uint32
}
