package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type MQTTConfig struct {
	Server   string `json:"server" yaml:"server"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	ClientID string `json:"client_id" yaml:"client_id"`
	Topic    string `json:"topic" yaml:"topic"`
}

type OutputConfig struct {
	Type       string      `json:"type" yaml:"type"`
	IntervalMs int         `json:"interval_ms,omitempty" yaml:"interval_ms,omitempty"`
	MQTT       *MQTTConfig `json:"mqtt,omitempty" yaml:"mqtt,omitempty"`
}

type Config struct {
	Device     string         `json:"device" yaml:"device"`
	Serial     string         `json:"serial" yaml:"serial"`
	Channels   []int          `json:"channels" yaml:"channels"`
	SampleRate float64        `json:"sample_rate" yaml:"sample_rate"`
	DLLPath    string         `json:"dll_path" yaml:"dll_path"`
	SensorType string         `json:"sensor_type" yaml:"sensor_type"`
	Logfile    string         `json:"logfile" yaml:"logfile"`
	Overwrite  bool           `json:"overwrite" yaml:"overwrite"`
	Record     bool           `json:"record" yaml:"record"`
	IntervalMs int            `json:"interval_ms" yaml:"interval_ms"`
	Outputs    []OutputConfig `json:"outputs" yaml:"outputs"`
}

func DefaultConfig() Config {
	return Config{
		Device:     "MP150",
		Serial:     "auto",
		Channels:   []int{0, 1, 2},
		SampleRate: 200,
		SensorType: "real",
		Logfile:    "default",
		Record:     true,
		IntervalMs: 1000,
		Outputs:    []OutputConfig{{Type: "console", IntervalMs: 1000}},
	}
}

// LoadFile reads a config file into cfg. The format is picked by extension:
// .yaml/.yml parse as YAML, everything else as JSON.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

// LoadFromFlags loads configuration from a config file (optional) and flags.
// Flags override values present in the file.
func LoadFromFlags() (Config, error) {
	cfgPath := flag.String("config", "", "Path to JSON or YAML config file")
	flagDevice := flag.String("device", "", "Device name (MP150, MP160, MP36R)")
	flagSerial := flag.String("serial", "", "Device serial number, or 'auto'")
	flagChannels := flag.String("channels", "", "Comma-separated channels e.g. 0,1,2")
	flagSampleRate := flag.Float64("sample-rate", math.NaN(), "Sampling rate in Hz")
	flagDLLPath := flag.String("dll-path", "", "Path to mpdev.dll")
	flagSensorType := flag.String("sensor-type", "", "sensor type: real|simulation")
	flagLogfile := flag.String("logfile", "", "Base name for the TSV log file")
	flagOverwrite := flag.String("overwrite", "", "Overwrite an existing log file (true|false)")
	flagRecord := flag.String("record", "", "Record samples to the log file (true|false)")
	flagInterval := flag.Int("interval-ms", -1, "Publish interval in ms")
	flagOutputs := flag.String("outputs", "", "Comma-separated outputs (console,mqtt)")
	flagOutputIntervals := flag.String("output-intervals", "", "Comma-separated output intervals e.g. console=1000,mqtt=5000")
	flagMQTTServer := flag.String("mqtt-server", "", "MQTT server (tcp://host:port)")
	flagMQTTUser := flag.String("mqtt-user", "", "MQTT username")
	flagMQTTPass := flag.String("mqtt-pass", "", "MQTT password")
	flagClientID := flag.String("mqtt-client-id", "", "MQTT client id")
	flagTopic := flag.String("mqtt-topic", "", "MQTT topic (may contain a %d channel formatter)")

	flag.Parse()

	cfg := DefaultConfig()

	if *cfgPath != "" {
		if err := LoadFile(*cfgPath, &cfg); err != nil {
			return cfg, err
		}
	}

	if *flagDevice != "" {
		cfg.Device = *flagDevice
	}
	if *flagSerial != "" {
		cfg.Serial = *flagSerial
	}
	if *flagChannels != "" {
		chs, err := parseChannels(*flagChannels)
		if err != nil {
			return cfg, err
		}
		cfg.Channels = chs
	}
	if !math.IsNaN(*flagSampleRate) {
		cfg.SampleRate = *flagSampleRate
	}
	if *flagDLLPath != "" {
		cfg.DLLPath = *flagDLLPath
	}
	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagLogfile != "" {
		cfg.Logfile = *flagLogfile
	}
	if *flagOverwrite != "" {
		v, err := strconv.ParseBool(*flagOverwrite)
		if err != nil {
			return cfg, fmt.Errorf("overwrite: %w", err)
		}
		cfg.Overwrite = v
	}
	if *flagRecord != "" {
		v, err := strconv.ParseBool(*flagRecord)
		if err != nil {
			return cfg, fmt.Errorf("record: %w", err)
		}
		cfg.Record = v
	}
	if *flagInterval != -1 {
		cfg.IntervalMs = *flagInterval
	}
	if *flagOutputs != "" {
		parts := parseCSV(*flagOutputs)
		outs := make([]OutputConfig, 0, len(parts))
		for _, p := range parts {
			outs = append(outs, OutputConfig{Type: p, IntervalMs: cfg.IntervalMs})
		}
		cfg.Outputs = outs
	}
	if *flagOutputIntervals != "" {
		intervals, err := parseKeyIntMap(*flagOutputIntervals)
		if err != nil {
			return cfg, fmt.Errorf("output-intervals: %w", err)
		}
		for i := range cfg.Outputs {
			if v, ok := intervals[cfg.Outputs[i].Type]; ok {
				cfg.Outputs[i].IntervalMs = v
			}
		}
	}
	if *flagMQTTServer != "" || *flagMQTTUser != "" || *flagMQTTPass != "" || *flagClientID != "" || *flagTopic != "" {
		// Apply MQTT flags to all mqtt outputs; if none exist, create one.
		applied := false
		for i := range cfg.Outputs {
			if strings.EqualFold(cfg.Outputs[i].Type, "mqtt") {
				if cfg.Outputs[i].MQTT == nil {
					cfg.Outputs[i].MQTT = &MQTTConfig{}
				}
				applyMQTTFlags(cfg.Outputs[i].MQTT, *flagMQTTServer, *flagMQTTUser, *flagMQTTPass, *flagClientID, *flagTopic)
				applied = true
			}
		}
		if !applied {
			out := OutputConfig{Type: "mqtt", IntervalMs: cfg.IntervalMs, MQTT: &MQTTConfig{}}
			applyMQTTFlags(out.MQTT, *flagMQTTServer, *flagMQTTUser, *flagMQTTPass, *flagClientID, *flagTopic)
			cfg.Outputs = append(cfg.Outputs, out)
		}
	}

	// ensure outputs have interval default
	for i := range cfg.Outputs {
		if cfg.Outputs[i].IntervalMs == 0 {
			cfg.Outputs[i].IntervalMs = cfg.IntervalMs
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the acquisition parameters the vendor library would
// otherwise reject opaquely.
func (cfg Config) Validate() error {
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("sample-rate must be > 0, got %v", cfg.SampleRate)
	}
	if n := len(cfg.Channels); n < 1 || n > 16 {
		return fmt.Errorf("1-16 channels can be recorded; %d requested", n)
	}
	seen := map[int]bool{}
	for _, ch := range cfg.Channels {
		if ch < 0 || ch > 15 {
			return fmt.Errorf("channel %d out of range 0-15", ch)
		}
		if seen[ch] {
			return fmt.Errorf("channel %d listed twice", ch)
		}
		seen[ch] = true
	}
	switch cfg.SensorType {
	case "real", "simulation":
	default:
		return fmt.Errorf("sensor-type must be real or simulation, got %q", cfg.SensorType)
	}
	return nil
}

func applyMQTTFlags(m *MQTTConfig, server, user, pass, clientID, topic string) {
	if server != "" {
		m.Server = server
	}
	if user != "" {
		m.Username = user
	}
	if pass != "" {
		m.Password = pass
	}
	if clientID != "" {
		m.ClientID = clientID
	}
	if topic != "" {
		m.Topic = topic
	}
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseChannels(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		v, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("invalid channel '%s': %w", t, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseKeyIntMap(s string) (map[string]int, error) {
	out := map[string]int{}
	for _, p := range parseCSV(s) {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid entry '%s'", p)
		}
		v, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid entry '%s': %w", p, err)
		}
		out[strings.TrimSpace(kv[0])] = v
	}
	return out, nil
}
