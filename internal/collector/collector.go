// Package collector samples the host on a fixed interval, turns the
// cumulative counters into rates and publishes one snapshot per tick to
// every subscriber.
package collector

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/scrapster/internal/broadcast"
	"codeberg.org/mutker/scrapster/internal/errors"
	"codeberg.org/mutker/scrapster/internal/gpu"
	"codeberg.org/mutker/scrapster/internal/logger"
	"codeberg.org/mutker/scrapster/internal/metrics"
	"codeberg.org/mutker/scrapster/internal/sensor"
	"codeberg.org/mutker/scrapster/internal/source"
	"github.com/jonboulle/clockwork"
)

// DefaultPulsesPerRevolution matches common 4-pin PC fans.
const DefaultPulsesPerRevolution = 2

// Reader provides the raw host counters. Each call is expected to
// return quickly and to honour ctx.
type Reader interface {
	CPU(ctx context.Context) (source.CPUStat, error)
	Memory(ctx context.Context) (source.Memory, error)
	Load(ctx context.Context) (source.Load, error)
	Uptime(ctx context.Context) (uint64, error)
	Disks(ctx context.Context) (map[string]source.IOCounter, error)
	Interfaces(ctx context.Context) (map[string]source.IOCounter, error)
	Thermal(ctx context.Context) (source.Thermal, error)
}

type Config struct {
	// Interval is both the tick cadence and the divisor of every rate.
	Interval time.Duration
	// Backlog is the number of snapshots kept for a slow subscriber.
	Backlog int
	// SkipBootstrap makes the first tick only establish the baseline
	// instead of publishing since-boot figures.
	SkipBootstrap       bool
	PulsesPerRevolution int
}

type Option func(*Collector)

func WithSensors(s sensor.Sensors) Option {
	return func(c *Collector) {
		c.sensors = s
	}
}

func WithGPU(p gpu.Probe) Option {
	return func(c *Collector) {
		c.gpu = p
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Collector) {
		c.clock = clock
	}
}

func WithLogger(log logger.Logger) Option {
	return func(c *Collector) {
		c.logger = log
	}
}

// Collector owns the sampling goroutine and the subscriber fan-out.
type Collector struct {
	cfg     Config
	reader  Reader
	sensors sensor.Sensors
	gpu     gpu.Probe
	clock   clockwork.Clock
	logger  logger.Logger
	health  *health
	out     *broadcast.Broadcaster[metrics.Snapshot]

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns an idle Collector. Without options it has no sensors, no
// GPU, the real clock and a discarding logger.
func New(cfg Config, reader Reader, opts ...Option) *Collector {
	if cfg.PulsesPerRevolution <= 0 {
		cfg.PulsesPerRevolution = DefaultPulsesPerRevolution
	}

	c := &Collector{
		cfg:     cfg,
		reader:  reader,
		sensors: sensor.Noop(),
		gpu:     gpu.Noop(),
		clock:   clockwork.NewRealClock(),
		logger:  logger.Nop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("collector")
	c.health = newHealth(c.logger)
	c.out = broadcast.New[metrics.Snapshot](cfg.Backlog)

	return c
}

// Subscribe returns a stream of the snapshots published from now on.
// It may be called at any time; after Stop the stream is already
// closed.
func (c *Collector) Subscribe() *broadcast.Subscription[metrics.Snapshot] {
	return c.out.Subscribe()
}

// Start launches the sampling goroutine. The goroutine runs until ctx
// is cancelled or Stop is called.
func (c *Collector) Start(ctx context.Context) error {
	errFactory := errors.NewFactory()

	if c.cfg.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.cfg.Interval.String())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.stopped:
		return errFactory.New(ErrStopped)
	case c.started:
		return errFactory.New(ErrAlreadyStarted)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = true

	c.logger.Info().
		Dur("interval", c.cfg.Interval).
		Bool("skip_bootstrap", c.cfg.SkipBootstrap).
		Msg("Collector started")

	go c.run(runCtx)

	return nil
}

// Stop cancels the sampling goroutine and waits for it. A tick in
// progress completes first. All subscriptions are closed on return.
func (c *Collector) Stop() {
	c.mu.Lock()
	started, stopped := c.started, c.stopped
	c.stopped = true
	c.mu.Unlock()

	if stopped {
		<-c.done
		return
	}

	if !started {
		c.out.Close()
		close(c.done)
		return
	}

	c.cancel()
	<-c.done
}

// Done is closed once the collector has stopped and all subscriptions
// are closed.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	defer c.out.Close()
	defer c.logger.Info().Msg("Collector stopped")

	// Readers see a context that outlives Stop so the last tick finishes.
	readCtx := context.WithoutCancel(ctx)
	st := newState()
	publish := !c.cfg.SkipBootstrap

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.cfg.Interval):
		}

		snap := c.sample(readCtx, st)
		if !publish {
			publish = true
			c.logger.Debug().Msg("Baseline established")
			continue
		}

		n := c.out.Publish(snap)
		c.logger.Debug().
			Time("timestamp", snap.Timestamp).
			Int("subscribers", n).
			Msg("Snapshot published")
	}
}

// Once takes a baseline, waits one cfg.Interval and returns the
// snapshot for that interval. It does not publish anything.
func Once(ctx context.Context, cfg Config, reader Reader, opts ...Option) (metrics.Snapshot, error) {
	errFactory := errors.NewFactory()

	if cfg.Interval <= 0 {
		return metrics.Snapshot{}, errFactory.WithData(errors.ErrInvalidInterval, cfg.Interval.String())
	}

	c := New(cfg, reader, opts...)
	st := newState()
	c.sample(ctx, st)

	select {
	case <-ctx.Done():
		return metrics.Snapshot{}, errFactory.Wrap(ErrCancelled, ctx.Err())
	case <-c.clock.After(cfg.Interval):
	}

	return c.sample(ctx, st), nil
}
