// Package mpdev binds the proprietary BIOPAC hardware API (mpdev.dll). All
// acquisition logic lives inside the vendor library; this package only
// marshals arguments, checks vendor return codes, and exposes the handful of
// calls the session layer needs.
package mpdev

import "fmt"

// MaxChannels is the number of analog channels an MP device exposes.
const MaxChannels = 16

// DeviceType selects the MP hardware family, as defined by the vendor API.
type DeviceType int32

const (
	MP150 DeviceType = 101
	MP160 DeviceType = 103
	MP36R DeviceType = 103
)

// ComMethod selects how the vendor library reaches the device.
type ComMethod int32

const (
	ComUSB ComMethod = 10
	ComUDP ComMethod = 11
)

// SerialAuto connects to the first responding device.
const SerialAuto = "auto"

// Returncode is a status code returned by every mpdev function. The vendor
// documents 1 as MPSUCCESS; other values are opaque.
type Returncode uint32

const Success Returncode = 1

func (rc Returncode) Success() bool { return rc == Success }

func (rc Returncode) String() string {
	if rc == Success {
		return "MPSUCCESS"
	}
	return fmt.Sprintf("mpdev returncode %d", uint32(rc))
}

// API is the surface of the vendor library used by the session layer. The
// real implementation (windows only) calls into mpdev.dll; the Simulator
// implements the same contract in-process.
type API interface {
	// Connect opens a session with a device. serial selects a specific
	// device by serial number, or SerialAuto for the first one found.
	Connect(dev DeviceType, method ComMethod, serial string) error
	// SetSampleRate sets the sample period in milliseconds per sample.
	SetSampleRate(periodMS float64) error
	// SetAcqChannels enables acquisition on the marked channels.
	SetAcqChannels(active [MaxChannels]bool) error
	StartAcquisition() error
	StopAcquisition() error
	// MostRecentSample fills buf with the newest value of each active
	// channel, in channel order. It blocks until a new sample is
	// available.
	MostRecentSample(buf []float64) error
	Disconnect() error
}

// channelMask converts the active-channel set into the int32 array layout
// setAcqChannels expects.
func channelMask(active [MaxChannels]bool) [MaxChannels]int32 {
	var mask [MaxChannels]int32
	for i, on := range active {
		if on {
			mask[i] = 1
		}
	}
	return mask
}

func vendorError(fn string, rc Returncode) error {
	return fmt.Errorf("%s: %s", fn, rc)
}
