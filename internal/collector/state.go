package collector

import (
	"time"

	"codeberg.org/mutker/scrapster/internal/source"
)

// baseline tells how a subsystem's previous reading may be diffed.
type baseline int

const (
	// baselineZero is the state before the first tick: counters are
	// measured from zero, which yields since-boot figures.
	baselineZero baseline = iota
	// baselineSet holds the previous tick's reading.
	baselineSet
	// baselineLost follows a failed read. The next successful read only
	// re-establishes the baseline and reports 0.
	baselineLost
)

// state is the previous tick's raw counters. It is owned by the
// goroutine running the ticks.
type state struct {
	at time.Time

	cpu     source.CPUStat
	cpuBase baseline

	memory     source.Memory
	memoryBase baseline

	disks     map[string]source.IOCounter
	disksBase baseline

	ifaces     map[string]source.IOCounter
	ifacesBase baseline
}

func newState() *state {
	return &state{
		disks:  map[string]source.IOCounter{},
		ifaces: map[string]source.IOCounter{},
	}
}

// nextTimestamp keeps capture times strictly increasing when the wall
// clock stalls or steps backwards.
func nextTimestamp(now, last time.Time) time.Time {
	if !last.IsZero() && !now.After(last) {
		return last.Add(time.Nanosecond)
	}

	return now
}
