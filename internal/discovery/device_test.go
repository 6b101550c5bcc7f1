package discovery

import (
	"strings"
	"testing"
)

func TestDeviceDescriptorAddr(t *testing.T) {
	tests := []struct {
		name    string
		address string
		port    int
		want    string
	}{
		{"ipv4", "192.168.1.20", 7000, "192.168.1.20:7000"},
		{"ipv6 gets bracketed", "fe80::1", 7000, "[fe80::1]:7000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DeviceDescriptor{Address: tt.address, Port: tt.port}
			if got := d.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeviceDescriptorCapabilities(t *testing.T) {
	d := DeviceDescriptor{
		Codecs:      []string{"AAC", "PCM"},
		SampleRates: []int{44100, 48000},
	}

	if !d.SupportsCodec("AAC") || d.SupportsCodec("ALAC") {
		t.Errorf("SupportsCodec: AAC=%v ALAC=%v, want true/false",
			d.SupportsCodec("AAC"), d.SupportsCodec("ALAC"))
	}
	if !d.SupportsSampleRate(48000) || d.SupportsSampleRate(96000) {
		t.Errorf("SupportsSampleRate: 48000=%v 96000=%v, want true/false",
			d.SupportsSampleRate(48000), d.SupportsSampleRate(96000))
	}
}

func TestDeviceDescriptorString(t *testing.T) {
	d := DeviceDescriptor{
		Name:     "Living Room",
		Hostname: "living-room.local.",
		Address:  "192.168.1.20",
		Port:     7000,
	}
	s := d.String()
	for _, frag := range []string{"Living Room", "192.168.1.20:7000", "living-room.local."} {
		if !strings.Contains(s, frag) {
			t.Errorf("String() = %q, missing %q", s, frag)
		}
	}
}
