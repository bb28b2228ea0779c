package sensor

import "codeberg.org/mutker/scrapster/internal/errors"

type noop struct{}

// Noop returns Sensors with every operation unavailable. It stands in
// when sensors are disabled or failed to initialize.
func Noop() Sensors {
	return noop{}
}

func (noop) TakePulses() (uint64, error) {
	return 0, errors.New(ErrUnavailable)
}

func (noop) ReadAmbient() (Ambient, error) {
	return Ambient{}, errors.New(ErrUnavailable)
}

func (noop) DutyPercent() (float64, error) {
	return 0, errors.New(ErrUnavailable)
}

func (noop) Close() error {
	return nil
}
