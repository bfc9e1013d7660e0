//go:build !windows

package mpdev

import (
	"fmt"
	"runtime"
)

// Library is only available on windows, where the vendor ships mpdev.dll. On
// other platforms Open fails and callers fall back to the Simulator.
type Library struct{}

// Open always fails off windows.
func Open(path string) (*Library, error) {
	return nil, fmt.Errorf("mpdev.dll is windows only (GOOS=%s)", runtime.GOOS)
}

func (l *Library) Release() error { return errUnsupported() }

func (l *Library) Connect(dev DeviceType, method ComMethod, serial string) error {
	return errUnsupported()
}
func (l *Library) SetSampleRate(periodMS float64) error { return errUnsupported() }

func (l *Library) SetAcqChannels(active [MaxChannels]bool) error { return errUnsupported() }

func (l *Library) StartAcquisition() error { return errUnsupported() }

func (l *Library) StopAcquisition() error { return errUnsupported() }

func (l *Library) MostRecentSample(buf []float64) error { return errUnsupported() }

func (l *Library) Disconnect() error { return errUnsupported() }

func errUnsupported() error {
	return fmt.Errorf("mpdev: not supported on %s", runtime.GOOS)
}

var _ API = (*Library)(nil)
