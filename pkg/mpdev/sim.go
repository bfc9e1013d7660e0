package mpdev

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Simulator implements API without hardware. Each active channel produces a
// sinusoid with per-channel frequency plus a little noise, and
// MostRecentSample blocks until the next sample period, matching the blocking
// behavior of the vendor call. It also enforces the vendor call order, so the
// session layer's error paths can be exercised in tests.
type Simulator struct {
	mu        sync.Mutex
	connected bool
	acquiring bool
	periodMS  float64
	active    [MaxChannels]bool
	started   time.Time
	next      time.Time
	rng       *rand.Rand
}

var _ API = (*Simulator)(nil)

func NewSimulator() *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *Simulator) Connect(dev DeviceType, method ComMethod, serial string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return fmt.Errorf("connectMPDev: already connected")
	}
	switch dev {
	case MP150, MP160:
	default:
		return vendorError("connectMPDev", 0)
	}
	s.connected = true
	s.started = time.Now()
	return nil
}

func (s *Simulator) SetSampleRate(periodMS float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return vendorError("setSampleRate", 0)
	}
	if periodMS <= 0 {
		return fmt.Errorf("setSampleRate: period %v ms out of range", periodMS)
	}
	s.periodMS = periodMS
	return nil
}

func (s *Simulator) SetAcqChannels(active [MaxChannels]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return vendorError("setAcqChannels", 0)
	}
	s.active = active
	return nil
}

func (s *Simulator) StartAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return vendorError("startAcquisition", 0)
	}
	if s.periodMS == 0 || s.activeCount() == 0 {
		return fmt.Errorf("startAcquisition: sample rate and channels must be set first")
	}
	s.acquiring = true
	s.next = time.Now()
	return nil
}

func (s *Simulator) StopAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return vendorError("stopAcquisition", 0)
	}
	s.acquiring = false
	return nil
}

// MostRecentSample blocks until the next simulated sample is due, then fills
// buf with one value per active channel.
func (s *Simulator) MostRecentSample(buf []float64) error {
	s.mu.Lock()
	if !s.connected || !s.acquiring {
		s.mu.Unlock()
		return vendorError("getMostRecentSample", 0)
	}
	if want := s.activeCount(); len(buf) < want {
		s.mu.Unlock()
		return fmt.Errorf("getMostRecentSample: buffer holds %d values, %d channels active", len(buf), want)
	}
	period := time.Duration(s.periodMS * float64(time.Millisecond))
	wait := time.Until(s.next)
	s.next = s.next.Add(period)
	s.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := time.Since(s.started).Seconds()
	i := 0
	for ch, on := range s.active {
		if !on {
			continue
		}
		// 1 Hz base wave, shifted per channel, with mild noise on top.
		freq := 1.0 + 0.5*float64(ch)
		buf[i] = math.Sin(2*math.Pi*freq*t) + 0.01*s.rng.NormFloat64()
		i++
	}
	return nil
}

func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return vendorError("disconnectMPDev", 0)
	}
	s.connected = false
	s.acquiring = false
	return nil
}

func (s *Simulator) activeCount() int {
	n := 0
	for _, on := range s.active {
		if on {
			n++
		}
	}
	return n
}
