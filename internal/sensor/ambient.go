package sensor

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/scrapster/internal/errors"
)

const (
	dhtDriverName    = "dht11" // the kernel driver handles DHT11 and DHT22
	iioTemperature   = "in_temp_input"
	iioHumidity      = "in_humidityrelative_input"
	iioName          = "name"
	milliUnitsPerOne = 1000.0
)

// IIOAmbient reads a DHT22 through the kernel's IIO dht11 driver.
type IIOAmbient struct {
	dir string
}

// FindIIOAmbient returns the first IIO device matching pattern whose
// driver is dht11.
func FindIIOAmbient(pattern string) (*IIOAmbient, error) {
	dirs, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrap(ErrAmbientAbsent, err)
	}

	for _, dir := range dirs {
		name, err := os.ReadFile(filepath.Join(dir, iioName))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(name)) == dhtDriverName {
			return &IIOAmbient{dir: dir}, nil
		}
	}

	return nil, errors.New(ErrAmbientAbsent).WithData(pattern)
}

// Read performs one combined read. The driver triggers a fresh
// conversion per file read and fails with EIO on a bad checksum, so a
// failure of either value discards both.
func (a *IIOAmbient) Read() (Ambient, error) {
	temperature, err := readMilliFile(filepath.Join(a.dir, iioTemperature))
	if err != nil {
		return Ambient{}, errors.Wrap(ErrAmbientRead, err)
	}

	humidity, err := readMilliFile(filepath.Join(a.dir, iioHumidity))
	if err != nil {
		return Ambient{}, errors.Wrap(ErrAmbientRead, err)
	}

	return Ambient{Temperature: temperature, Humidity: humidity}, nil
}

func readMilliFile(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, err
	}

	return v / milliUnitsPerOne, nil
}
