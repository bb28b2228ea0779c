package sensor

import (
	"math"
	"sync"
	"time"

	"codeberg.org/mutker/scrapster/internal/errors"
	"codeberg.org/mutker/scrapster/internal/logger"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// edgePollTimeout bounds how long the counting goroutine waits for an
// edge before checking for Close.
const edgePollTimeout = 100 * time.Millisecond

// PiConfig selects the pins and the PWM output of a Raspberry Pi fan
// with a tachometer, plus the optional DHT22 probe.
type PiConfig struct {
	PWMPin        string
	TachPin       string
	PWMFrequency  int     // hertz
	Duty          float64 // initial duty, percent
	AmbientDevice string  // glob of IIO device directories
}

type pwmOutput interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
	Halt() error
}

type edgeInput interface {
	WaitForEdge(timeout time.Duration) bool
	Halt() error
}

type ambientReader interface {
	Read() (Ambient, error)
}

// Pi drives a PWM fan and counts its tachometer pulses on a separate
// goroutine.
type Pi struct {
	pwm     pwmOutput
	tach    edgeInput
	ambient ambientReader
	freq    physic.Frequency
	pulses  PulseCounter
	log     logger.Logger

	mu     sync.Mutex
	duty   float64
	closed bool

	stop chan struct{}
	done chan struct{}
}

// NewPi opens the GPIO pins, starts the fan at cfg.Duty and begins
// counting tachometer pulses. A missing ambient probe is not an error;
// ReadAmbient then reports it as unavailable.
func NewPi(cfg PiConfig, log logger.Logger) (*Pi, error) {
	errFactory := errors.NewFactory()

	if _, err := host.Init(); err != nil {
		return nil, errFactory.Wrap(ErrHostInit, err)
	}

	pwmPin := gpioreg.ByName(cfg.PWMPin)
	if pwmPin == nil {
		return nil, errFactory.WithData(ErrPinNotFound, cfg.PWMPin)
	}

	tachPin := gpioreg.ByName(cfg.TachPin)
	if tachPin == nil {
		return nil, errFactory.WithData(ErrPinNotFound, cfg.TachPin)
	}

	if err := tachPin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, errFactory.Wrap(ErrTachFailed, err)
	}

	var ambient ambientReader
	if probe, err := FindIIOAmbient(cfg.AmbientDevice); err != nil {
		log.Warn().Err(err).Msg("Ambient probe not found, temperature and humidity disabled")
	} else {
		ambient = probe
	}

	p := newPi(pwmPin, tachPin, ambient, physic.Frequency(cfg.PWMFrequency)*physic.Hertz, log)
	if err := p.SetDutyPercent(cfg.Duty); err != nil {
		p.Close()
		return nil, err
	}

	log.Info().
		Str("pwm_pin", cfg.PWMPin).
		Str("tach_pin", cfg.TachPin).
		Int("pwm_frequency", cfg.PWMFrequency).
		Float64("duty", cfg.Duty).
		Bool("ambient", ambient != nil).
		Msg("Fan sensors initialized")

	return p, nil
}

func newPi(pwm pwmOutput, tach edgeInput, ambient ambientReader, freq physic.Frequency, log logger.Logger) *Pi {
	p := &Pi{
		pwm:     pwm,
		tach:    tach,
		ambient: ambient,
		freq:    freq,
		log:     log,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.count()

	return p
}

func (p *Pi) count() {
	defer close(p.done)

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		if p.tach.WaitForEdge(edgePollTimeout) {
			p.pulses.Add(1)
		}
	}
}

func (p *Pi) TakePulses() (uint64, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return 0, errors.New(ErrClosed)
	}

	return p.pulses.Take(), nil
}

func (p *Pi) ReadAmbient() (Ambient, error) {
	if p.ambient == nil {
		return Ambient{}, errors.New(ErrAmbientAbsent)
	}

	return p.ambient.Read()
}

func (p *Pi) DutyPercent() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New(ErrClosed)
	}

	return p.duty, nil
}

// SetDutyPercent sets the fan duty cycle, clamped to 0-100.
func (p *Pi) SetDutyPercent(percent float64) error {
	percent = math.Max(0, math.Min(100, percent))

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New(ErrClosed)
	}
	if err := p.pwm.PWM(toDuty(percent), p.freq); err != nil {
		return errors.Wrap(ErrPWMFailed, err)
	}
	p.duty = percent

	p.log.Debug().Float64("duty", percent).Msg("PWM duty set")

	return nil
}

// Close stops pulse counting and releases both pins. The fan keeps its
// last duty only as long as the hardware latches it.
func (p *Pi) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stop)
	<-p.done

	return errors.Join(p.tach.Halt(), p.pwm.Halt())
}

func toDuty(percent float64) gpio.Duty {
	return gpio.Duty(math.Round(percent / 100 * float64(gpio.DutyMax)))
}
