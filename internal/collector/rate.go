package collector

import (
	"codeberg.org/mutker/scrapster/internal/metrics"
	"codeberg.org/mutker/scrapster/internal/source"
)

const secondsPerMinute = 60

// Delta returns cur-prev, or 0 when the counter went backwards.
// Resets are not unwrapped.
func Delta(prev, cur uint64) uint64 {
	if cur < prev {
		return 0
	}

	return cur - prev
}

// Counter converts two readings of a cumulative counter taken elapsed
// seconds apart into a per-second rate. It is never negative.
func Counter(prev, cur uint64, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}

	return float64(Delta(prev, cur)) / elapsed
}

// CPUPercentages returns the share of each mode in the ticks spent
// between prev and cur. The total is the sum of the per-mode deltas, so
// the modes add up to 100 even when a single mode counter reset. With
// no ticks elapsed every share is 0.
func CPUPercentages(prev, cur source.CPUTimes) metrics.CPUMetrics {
	d := source.CPUTimes{
		User:    Delta(prev.User, cur.User),
		Nice:    Delta(prev.Nice, cur.Nice),
		System:  Delta(prev.System, cur.System),
		Idle:    Delta(prev.Idle, cur.Idle),
		IOWait:  Delta(prev.IOWait, cur.IOWait),
		IRQ:     Delta(prev.IRQ, cur.IRQ),
		SoftIRQ: Delta(prev.SoftIRQ, cur.SoftIRQ),
		Steal:   Delta(prev.Steal, cur.Steal),
	}

	total := d.Total()
	if total == 0 {
		return metrics.CPUMetrics{}
	}

	pct := func(v uint64) float64 {
		return 100 * float64(v) / float64(total)
	}

	return metrics.CPUMetrics{
		Usage:   pct(total - d.Idle),
		User:    pct(d.User),
		Nice:    pct(d.Nice),
		System:  pct(d.System),
		Idle:    pct(d.Idle),
		IOWait:  pct(d.IOWait),
		IRQ:     pct(d.IRQ),
		SoftIRQ: pct(d.SoftIRQ),
		Steal:   pct(d.Steal),
	}
}

// IORates sums per-device byte counters into in and out rates. A device
// missing from prev counts from zero on the bootstrap tick and
// contributes nothing otherwise; devices that disappeared are ignored.
func IORates(prev, cur map[string]source.IOCounter, base baseline, elapsed float64) (in, out float64) {
	if base == baselineLost {
		return 0, 0
	}

	var dIn, dOut uint64
	for name, c := range cur {
		p, ok := prev[name]
		if !ok && base != baselineZero {
			continue
		}
		dIn += Delta(p.In, c.In)
		dOut += Delta(p.Out, c.Out)
	}

	if elapsed <= 0 {
		return 0, 0
	}

	return float64(dIn) / elapsed, float64(dOut) / elapsed
}

// RPM converts tachometer pulses counted over elapsed seconds into
// revolutions per minute.
func RPM(pulses uint64, pulsesPerRevolution int, elapsed float64) float64 {
	if pulsesPerRevolution <= 0 || elapsed <= 0 {
		return 0
	}

	return float64(pulses) / float64(pulsesPerRevolution) * secondsPerMinute / elapsed
}
