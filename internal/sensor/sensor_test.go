package sensor

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/scrapster/internal/errors"
	"codeberg.org/mutker/scrapster/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

func TestPulseCounterTakeResets(t *testing.T) {
	var c PulseCounter
	c.Add(3)
	c.Add(2)

	assert.Equal(t, uint64(5), c.Take())
	assert.Equal(t, uint64(0), c.Take())
}

func TestPulseCounterConcurrentTakeLosesNothing(t *testing.T) {
	const (
		writers   = 8
		perWriter = 20000
	)

	var c PulseCounter
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				c.Add(1)
			}
		}()
	}

	stop := make(chan struct{})
	var taken atomic.Uint64
	var pollers sync.WaitGroup
	pollers.Add(1)
	go func() {
		defer pollers.Done()
		for {
			select {
			case <-stop:
				return
			default:
				taken.Add(c.Take())
			}
		}
	}()

	wg.Wait()
	close(stop)
	pollers.Wait()
	taken.Add(c.Take())

	assert.Equal(t, uint64(writers*perWriter), taken.Load())
}

func TestNoopIsAlwaysUnavailable(t *testing.T) {
	s := Noop()

	_, err := s.TakePulses()
	assert.True(t, errors.HasCode(err, ErrUnavailable))
	_, err = s.ReadAmbient()
	assert.True(t, errors.HasCode(err, ErrUnavailable))
	_, err = s.DutyPercent()
	assert.True(t, errors.HasCode(err, ErrUnavailable))
	assert.NoError(t, s.Close())
}

func writeIIODevice(t *testing.T, root, name, driver string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "name"), []byte(driver+"\n"), 0o600))
	for file, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
	}

	return dir
}

func TestFindIIOAmbient(t *testing.T) {
	root := t.TempDir()
	writeIIODevice(t, root, "iio:device0", "ads1015", nil)
	writeIIODevice(t, root, "iio:device1", "dht11", map[string]string{
		"in_temp_input":             "21700\n",
		"in_humidityrelative_input": "48300\n",
	})

	probe, err := FindIIOAmbient(filepath.Join(root, "iio:device*"))
	require.NoError(t, err)

	got, err := probe.Read()
	require.NoError(t, err)
	assert.InDelta(t, 21.7, got.Temperature, 1e-9)
	assert.InDelta(t, 48.3, got.Humidity, 1e-9)
}

func TestIIOAmbientReadsBothOrNeither(t *testing.T) {
	root := t.TempDir()
	writeIIODevice(t, root, "iio:device0", "dht11", map[string]string{
		"in_temp_input": "21700\n",
	})

	probe, err := FindIIOAmbient(filepath.Join(root, "iio:device*"))
	require.NoError(t, err)

	got, err := probe.Read()
	assert.True(t, errors.HasCode(err, ErrAmbientRead))
	assert.Equal(t, Ambient{}, got)
}

func TestFindIIOAmbientMissing(t *testing.T) {
	_, err := FindIIOAmbient(filepath.Join(t.TempDir(), "iio:device*"))
	assert.True(t, errors.HasCode(err, ErrAmbientAbsent))
}

type fakePWM struct {
	mu     sync.Mutex
	duty   gpio.Duty
	freq   physic.Frequency
	halted bool
}

func (f *fakePWM) PWM(duty gpio.Duty, freq physic.Frequency) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duty, f.freq = duty, freq
	return nil
}

func (f *fakePWM) Halt() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.halted = true
	return nil
}

type fakeTach struct {
	edges  chan struct{}
	halted atomic.Bool
}

func (f *fakeTach) WaitForEdge(timeout time.Duration) bool {
	select {
	case <-f.edges:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (f *fakeTach) Halt() error {
	f.halted.Store(true)
	return nil
}

type fakeAmbient struct{ reading Ambient }

func (f fakeAmbient) Read() (Ambient, error) { return f.reading, nil }

func TestPiCountsEdgesAndSetsDuty(t *testing.T) {
	pwm := &fakePWM{}
	tach := &fakeTach{edges: make(chan struct{})}
	p := newPi(pwm, tach, fakeAmbient{Ambient{Temperature: 20, Humidity: 40}}, 25*physic.KiloHertz, logger.Nop())

	for i := 0; i < 6; i++ {
		tach.edges <- struct{}{}
	}
	require.Eventually(t, func() bool {
		return p.pulses.n.Load() == 6
	}, time.Second, 5*time.Millisecond)

	pulses, err := p.TakePulses()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), pulses)

	require.NoError(t, p.SetDutyPercent(150))
	duty, err := p.DutyPercent()
	require.NoError(t, err)
	assert.InDelta(t, 100.0, duty, 1e-9, "duty is clamped")
	assert.Equal(t, gpio.DutyMax, pwm.duty)
	assert.Equal(t, 25*physic.KiloHertz, pwm.freq)

	require.NoError(t, p.SetDutyPercent(50))
	assert.Equal(t, gpio.DutyHalf, pwm.duty)

	ambient, err := p.ReadAmbient()
	require.NoError(t, err)
	assert.Equal(t, Ambient{Temperature: 20, Humidity: 40}, ambient)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, tach.halted.Load())
	assert.True(t, pwm.halted)

	_, err = p.TakePulses()
	assert.True(t, errors.HasCode(err, ErrClosed))
	_, err = p.DutyPercent()
	assert.True(t, errors.HasCode(err, ErrClosed))
}

func TestPiWithoutAmbientProbe(t *testing.T) {
	p := newPi(&fakePWM{}, &fakeTach{edges: make(chan struct{})}, nil, physic.KiloHertz, logger.Nop())
	defer p.Close()

	_, err := p.ReadAmbient()
	assert.True(t, errors.HasCode(err, ErrAmbientAbsent))
}
