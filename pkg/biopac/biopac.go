// Package biopac drives one acquisition session on a BIOPAC MP device
// (MP150, MP160, MP36R) through the vendor's mpdev library. A background
// goroutine drains the newest sample from the device, keeps it available for
// Sample, and feeds the TSV recorder and the optional in-memory buffer.
package biopac

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/esdalmaijer/MPyDev/pkg/config"
	"github.com/esdalmaijer/MPyDev/pkg/mpdev"
	"github.com/esdalmaijer/MPyDev/pkg/recorder"
)

// Reading is one channel's newest value, as handed to outputs.
type Reading struct {
	Channel   int       `json:"channel"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

var deviceCodes = map[string]mpdev.DeviceType{
	"MP150": mpdev.MP150,
	"MP160": mpdev.MP160,
	"MP36R": mpdev.MP36R,
}

// SupportedDevices lists the device names New accepts.
func SupportedDevices() []string {
	names := make([]string, 0, len(deviceCodes))
	for name := range deviceCodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BioPac is an open session with an MP device.
type BioPac struct {
	lib      mpdev.API
	channels []int
	periodMS float64
	started  time.Time
	rec      *recorder.Recorder

	mu        sync.Mutex
	latest    []float64
	recording bool
	buffering bool
	buffch    int
	buffer    []float64

	quit chan struct{}
	done chan struct{}
}

// New connects to the device described by cfg, applies the sample rate and
// channel mask, starts acquisition, opens the TSV log file, and starts the
// background sampler.
func New(lib mpdev.API, cfg config.Config) (*BioPac, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	code, ok := deviceCodes[strings.ToUpper(cfg.Device)]
	if !ok {
		return nil, fmt.Errorf("unknown device name %q, supported devices are: %v",
			cfg.Device, SupportedDevices())
	}
	serial := cfg.Serial
	if serial == "" {
		serial = mpdev.SerialAuto
	}

	if err := lib.Connect(code, mpdev.ComUDP, serial); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Device, err)
	}

	b := &BioPac{
		lib:      lib,
		channels: slices.Clone(cfg.Channels),
		periodMS: 1000.0 / cfg.SampleRate,
		started:  time.Now(),
		latest:   make([]float64, len(cfg.Channels)),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if err := b.setup(cfg); err != nil {
		lib.Disconnect()
		return nil, err
	}

	go b.pump()
	return b, nil
}

func (b *BioPac) setup(cfg config.Config) error {
	if err := b.lib.SetSampleRate(b.periodMS); err != nil {
		return fmt.Errorf("set sample rate: %w", err)
	}
	var active [mpdev.MaxChannels]bool
	for _, ch := range b.channels {
		active[ch] = true
	}
	if err := b.lib.SetAcqChannels(active); err != nil {
		return fmt.Errorf("set channels: %w", err)
	}
	if err := b.lib.StartAcquisition(); err != nil {
		return fmt.Errorf("start acquisition: %w", err)
	}
	rec, err := recorder.Create(cfg.Logfile, len(b.channels), cfg.Overwrite)
	if err != nil {
		b.lib.StopAcquisition()
		return err
	}
	b.rec = rec
	return nil
}

// pump runs until Close. MostRecentSample blocks until a new sample is
// available, so the device paces this loop.
func (b *BioPac) pump() {
	defer close(b.done)
	buf := make([]float64, len(b.channels))
	last := make([]float64, len(b.channels))
	haveLast := false
	for {
		select {
		case <-b.quit:
			return
		default:
		}
		if err := b.lib.MostRecentSample(buf); err != nil {
			// Disconnect during Close also lands here; back off so a
			// persistently failing device cannot spin the loop.
			select {
			case <-b.quit:
				return
			case <-time.After(time.Duration(b.periodMS * float64(time.Millisecond))):
			}
			log.Printf("biopac: sample: %v", err)
			continue
		}
		t := b.Timestamp()

		// The vendor call can return the same vector more than once;
		// only a changed vector counts as a new sample.
		if haveLast && slices.Equal(buf, last) {
			continue
		}
		copy(last, buf)
		haveLast = true

		b.mu.Lock()
		copy(b.latest, buf)
		recording := b.recording
		if b.buffering {
			b.buffer = append(b.buffer, buf[b.buffch])
		}
		b.mu.Unlock()

		if recording {
			if err := b.rec.WriteSample(t, buf); err != nil {
				log.Printf("biopac: log sample: %v", err)
			}
		}
	}
}

// Sample returns a copy of the most recent sample vector, one value per
// configured channel. Before the first sample arrives the vector is zero.
func (b *BioPac) Sample() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.latest)
}

// Readings returns the most recent value of every configured channel, stamped
// with the current wall-clock time.
func (b *BioPac) Readings() []Reading {
	now := time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Reading, len(b.channels))
	for i, ch := range b.channels {
		out[i] = Reading{Channel: ch, Value: b.latest[i], Timestamp: now}
	}
	return out
}

// StartRecording starts writing samples to the TSV log file.
func (b *BioPac) StartRecording() {
	b.mu.Lock()
	b.recording = true
	b.mu.Unlock()
}

// StopRecording stops writing samples and pushes everything logged so far to
// disk.
func (b *BioPac) StopRecording() error {
	b.mu.Lock()
	b.recording = false
	b.mu.Unlock()
	return b.rec.Flush()
}

// StartRecordingToBuffer starts collecting one channel's values in memory.
// channel indexes the configured channel list, not the device channel number.
func (b *BioPac) StartRecordingToBuffer(channel int) error {
	if channel < 0 || channel >= len(b.channels) {
		return fmt.Errorf("buffer channel %d out of range 0-%d", channel, len(b.channels)-1)
	}
	b.mu.Lock()
	b.buffer = nil
	b.buffch = channel
	b.buffering = true
	b.mu.Unlock()
	return nil
}

// StopRecordingToBuffer stops collecting values in memory. The collected
// values stay available through Buffer.
func (b *BioPac) StopRecordingToBuffer() {
	b.mu.Lock()
	b.buffering = false
	b.mu.Unlock()
}

// Buffer returns the values collected since StartRecordingToBuffer.
func (b *BioPac) Buffer() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.buffer)
}

// Log writes a marker message to the log file, stamped with the session
// timestamp.
func (b *BioPac) Log(msg string) error {
	return b.rec.WriteMessage(b.Timestamp(), msg)
}

// Timestamp returns the milliseconds elapsed since the session was opened.
func (b *BioPac) Timestamp() int64 {
	return time.Since(b.started).Milliseconds()
}

// LogfileName returns the name of the TSV log file for this session.
func (b *BioPac) LogfileName() string {
	return b.rec.Name()
}

// Close stops recording, stops the sampler, stops acquisition, and closes the
// connection to the device.
func (b *BioPac) Close() error {
	if err := b.StopRecording(); err != nil {
		log.Printf("biopac: flush log: %v", err)
	}
	close(b.quit)
	// Tear down the device first: the sampler may be blocked inside the
	// vendor call, and disconnecting is what unblocks it.
	errStop := b.lib.StopAcquisition()
	errDisc := b.lib.Disconnect()
	<-b.done
	errLog := b.rec.Close()

	if errDisc != nil {
		return fmt.Errorf("disconnect: %w", errDisc)
	}
	if errStop != nil {
		return fmt.Errorf("stop acquisition: %w", errStop)
	}
	return errLog
}
