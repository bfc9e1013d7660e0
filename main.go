package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/esdalmaijer/MPyDev/pkg/biopac"
	"github.com/esdalmaijer/MPyDev/pkg/config"
	"github.com/esdalmaijer/MPyDev/pkg/mpdev"
	"github.com/esdalmaijer/MPyDev/pkg/output"
	"github.com/esdalmaijer/MPyDev/pkg/output/console"
	mqttout "github.com/esdalmaijer/MPyDev/pkg/output/mqtt"
)

type outputEntry struct {
	Out        output.Output
	IntervalMs int
	last       time.Time
}

func main() {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lib, err := openAPI(cfg)
	if err != nil {
		log.Fatalf("open mpdev: %v", err)
	}

	b, err := biopac.New(lib, cfg)
	if err != nil {
		log.Fatalf("open session: %v", err)
	}
	log.Printf("connected to %s (serial %s), %d channels at %g Hz, logging to %s",
		cfg.Device, cfg.Serial, len(cfg.Channels), cfg.SampleRate, b.LogfileName())

	if cfg.Record {
		b.StartRecording()
	}

	entries, err := initOutputs(&cfg, cfg.IntervalMs)
	if err != nil {
		b.Close()
		log.Fatalf("outputs: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(computePollInterval(entries)) * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			break loop
		case now := <-ticker.C:
			readings := b.Readings()
			for _, e := range entries {
				if now.Sub(e.last) < time.Duration(e.IntervalMs)*time.Millisecond {
					continue
				}
				e.last = now
				if err := e.Out.Publish(readings); err != nil {
					log.Printf("publish: %v", err)
				}
			}
		}
	}

	for _, e := range entries {
		if err := e.Out.Close(); err != nil {
			log.Printf("close output: %v", err)
		}
	}
	if err := b.Close(); err != nil {
		log.Printf("close session: %v", err)
	}
}

// openAPI picks the vendor library or the in-process simulator.
func openAPI(cfg config.Config) (mpdev.API, error) {
	if cfg.SensorType == "simulation" {
		return mpdev.NewSimulator(), nil
	}
	return mpdev.Open(cfg.DLLPath)
}

// initOutputs builds one publisher per configured output, defaulting each
// publish interval that is still unset.
func initOutputs(cfg *config.Config, defaultIntervalMs int) ([]*outputEntry, error) {
	entries := make([]*outputEntry, 0, len(cfg.Outputs))
	for i := range cfg.Outputs {
		if cfg.Outputs[i].IntervalMs == 0 {
			cfg.Outputs[i].IntervalMs = defaultIntervalMs
		}
		var out output.Output
		switch strings.ToLower(cfg.Outputs[i].Type) {
		case "console":
			out = console.NewConsole()
		case "mqtt":
			mc := config.MQTTConfig{}
			if cfg.Outputs[i].MQTT != nil {
				mc = *cfg.Outputs[i].MQTT
			}
			m, err := mqttout.NewMQTT(mc)
			if err != nil {
				return nil, err
			}
			out = m
		default:
			return nil, fmt.Errorf("unknown output type %q", cfg.Outputs[i].Type)
		}
		entries = append(entries, &outputEntry{Out: out, IntervalMs: cfg.Outputs[i].IntervalMs})
	}
	return entries, nil
}

// computePollInterval returns the publish tick in milliseconds: the smallest
// output interval, floored at 10 ms so a misconfigured output cannot busy-poll.
func computePollInterval(entries []*outputEntry) int {
	interval := 1000
	for _, e := range entries {
		if e.IntervalMs < interval {
			interval = e.IntervalMs
		}
	}
	if interval < 10 {
		interval = 10
	}
	return interval
}
