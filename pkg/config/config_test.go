package config

import (
	"reflect"
	"testing"
)

func TestParseChannels(t *testing.T) {
	tests := []struct {
		in   string
		want []int
		ok   bool
	}{
		{"0,1,2", []int{0, 1, 2}, true},
		{" 3 , 15 ", []int{3, 15}, true},
		{"0,,1", []int{0, 1}, true},
		{"bad", nil, false},
	}
	for _, tt := range tests {
		got, err := parseChannels(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parseChannels(%q) ok=%v err=%v", tt.in, tt.ok, err)
		}
		if tt.ok && !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("parseChannels(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseKeyIntMap(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]int
		ok   bool
	}{
		{"", map[string]int{}, true},
		{"console=1000,mqtt=5000", map[string]int{"console": 1000, "mqtt": 5000}, true},
		{" console = 250 ", map[string]int{"console": 250}, true},
		{"bad", nil, false},
		{"mqtt=x", nil, false},
	}
	for _, tt := range tests {
		got, err := parseKeyIntMap(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parseKeyIntMap(%q) ok=%v err=%v", tt.in, tt.ok, err)
		}
		if tt.ok && !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("parseKeyIntMap(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	ok := DefaultConfig()
	if err := ok.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := []Config{
		func() Config { c := DefaultConfig(); c.SampleRate = 0; return c }(),
		func() Config { c := DefaultConfig(); c.Channels = nil; return c }(),
		func() Config { c := DefaultConfig(); c.Channels = []int{16}; return c }(),
		func() Config { c := DefaultConfig(); c.Channels = []int{1, 1}; return c }(),
		func() Config { c := DefaultConfig(); c.SensorType = "fake"; return c }(),
		func() Config {
			c := DefaultConfig()
			c.Channels = make([]int, 17)
			for i := range c.Channels {
				c.Channels[i] = i % 16
			}
			return c
		}(),
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("config %d should be invalid: %+v", i, c)
		}
	}
}
