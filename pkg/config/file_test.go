package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileJSON(t *testing.T) {
	js := `{
        "device": "MP36R",
        "serial": "MP36R-0042",
        "channels": [0, 1],
        "sample_rate": 500,
        "dll_path": "C:\\BIOPAC\\mpdev.dll",
        "sensor_type": "real",
        "logfile": "session",
        "overwrite": true,
        "outputs": [{"type":"console","interval_ms":250}]
    }`
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(js), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Device != "MP36R" || cfg.Serial != "MP36R-0042" {
		t.Fatalf("device/serial: %q %q", cfg.Device, cfg.Serial)
	}
	if cfg.SampleRate != 500 {
		t.Fatalf("sample_rate: %v", cfg.SampleRate)
	}
	if len(cfg.Channels) != 2 || cfg.Channels[1] != 1 {
		t.Fatalf("channels: %v", cfg.Channels)
	}
	if !cfg.Overwrite || cfg.Logfile != "session" {
		t.Fatalf("overwrite/logfile: %v %q", cfg.Overwrite, cfg.Logfile)
	}
	if len(cfg.Outputs) != 1 || cfg.Outputs[0].Type != "console" || cfg.Outputs[0].IntervalMs != 250 {
		t.Fatalf("outputs: %+v", cfg.Outputs)
	}
}

func TestLoadFileYAML(t *testing.T) {
	yml := `
device: MP160
channels: [0, 1, 2, 3]
sample_rate: 1000
sensor_type: simulation
outputs:
  - type: mqtt
    interval_ms: 5000
    mqtt:
      server: tcp://localhost:1883
      client_id: biopac-1
      topic: biopac/channel/%d
`
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Device != "MP160" || cfg.SampleRate != 1000 {
		t.Fatalf("device/sample_rate: %q %v", cfg.Device, cfg.SampleRate)
	}
	if cfg.SensorType != "simulation" {
		t.Fatalf("sensor_type: %q", cfg.SensorType)
	}
	if len(cfg.Outputs) != 1 || cfg.Outputs[0].MQTT == nil {
		t.Fatalf("outputs: %+v", cfg.Outputs)
	}
	if cfg.Outputs[0].MQTT.Server != "tcp://localhost:1883" || cfg.Outputs[0].MQTT.Topic != "biopac/channel/%d" {
		t.Fatalf("mqtt: %+v", cfg.Outputs[0].MQTT)
	}
	// fields absent from the file keep their defaults
	if cfg.Serial != "auto" {
		t.Fatalf("serial default lost: %q", cfg.Serial)
	}
}
