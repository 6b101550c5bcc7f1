package discovery

import (
	"reflect"
	"testing"
)

func TestCapabilityRecordRoundTrip(t *testing.T) {
	record := CapabilityRecord{
		"txtvers":    {"1"},
		"codecs":     {"AAC", "PCM"},
		"channels":   {"2"},
		"samplerate": {"44100", "48000"},
		"features":   {"sync", "eq"},
	}

	got := DecodeCapabilityRecord(record.Encode())
	if !reflect.DeepEqual(got, record) {
		t.Errorf("round trip = %v, want %v", got, record)
	}
}

func TestCapabilityParsing(t *testing.T) {
	data := CapabilityRecord{
		"codecs":     {"AAC", "PCM"},
		"channels":   {"2"},
		"samplerate": {"44100", "48000"},
	}.Encode()

	record := DecodeCapabilityRecord(data)

	if want := []string{"AAC", "PCM"}; !reflect.DeepEqual(record.Codecs(), want) {
		t.Errorf("Codecs() = %v, want %v", record.Codecs(), want)
	}
	if record.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", record.Channels())
	}
	if want := []int{44100, 48000}; !reflect.DeepEqual(record.SampleRates(), want) {
		t.Errorf("SampleRates() = %v, want %v", record.SampleRates(), want)
	}
}

func TestDecodeCapabilityRecordLenient(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want CapabilityRecord
	}{
		{
			name: "empty input",
			data: nil,
			want: CapabilityRecord{},
		},
		{
			name: "invalid utf8 entry dropped",
			data: append([]byte{3, 0xFF, 0xFE, 0xFD}, CapabilityRecord{"channels": {"2"}}.Encode()...),
			want: CapabilityRecord{"channels": {"2"}},
		},
		{
			name: "length byte overruns buffer",
			data: append(CapabilityRecord{"channels": {"2"}}.Encode(), 200, 'x'),
			want: CapabilityRecord{"channels": {"2"}},
		},
		{
			name: "zero length entry skipped",
			data: []byte{0, 10, 'c', 'h', 'a', 'n', 'n', 'e', 'l', 's', '=', '2'},
			want: CapabilityRecord{"channels": {"2"}},
		},
		{
			name: "key without value",
			data: []byte{4, 's', 'y', 'n', 'c'},
			want: CapabilityRecord{"sync": nil},
		},
		{
			name: "duplicate key keeps first",
			data: []byte{10, 'c', 'h', 'a', 'n', 'n', 'e', 'l', 's', '=', '2', 10, 'c', 'h', 'a', 'n', 'n', 'e', 'l', 's', '=', '6'},
			want: CapabilityRecord{"channels": {"2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeCapabilityRecord(tt.data)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("decoded = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCapabilityRecordStrings(t *testing.T) {
	record := CapabilityRecord{
		"samplerate": {"44100", "48000"},
		"codecs":     {"AAC"},
	}
	want := []string{"codecs=AAC", "samplerate=44100,48000"}
	if got := record.Strings(); !reflect.DeepEqual(got, want) {
		t.Errorf("Strings() = %v, want %v (sorted, comma-joined)", got, want)
	}
}

func TestCapabilityRecordFromStrings(t *testing.T) {
	record := CapabilityRecordFromStrings([]string{
		"codecs=AAC,PCM",
		"channels=2",
		"features",
		"=orphan",
	})

	if want := []string{"AAC", "PCM"}; !reflect.DeepEqual(record.Codecs(), want) {
		t.Errorf("Codecs() = %v, want %v", record.Codecs(), want)
	}
	if _, ok := record["features"]; !ok {
		t.Error("bare key dropped, want present with nil value")
	}
	if _, ok := record[""]; ok {
		t.Error("empty key retained, want dropped")
	}
}

func TestChannelsDefault(t *testing.T) {
	tests := []struct {
		name   string
		record CapabilityRecord
		want   int
	}{
		{"absent", CapabilityRecord{}, 2},
		{"non-numeric", CapabilityRecord{"channels": {"stereo"}}, 2},
		{"explicit", CapabilityRecord{"channels": {"6"}}, 6},
	}
	for _, tt := range tests {
		if got := tt.record.Channels(); got != tt.want {
			t.Errorf("%s: Channels() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestParseSampleRates(t *testing.T) {
	tests := []struct {
		list string
		want []int
	}{
		{"44100,48000", []int{44100, 48000}},
		{"44100, 48000", []int{44100, 48000}},
		{"44100,fast,48000", []int{44100, 48000}},
		{"none", nil},
		{"", nil},
	}

	for _, tt := range tests {
		if got := ParseSampleRates(tt.list); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSampleRates(%q) = %v, want %v", tt.list, got, tt.want)
		}
	}
}

func TestInjectTxtVers(t *testing.T) {
	record := CapabilityRecord{"codecs": {"PCM"}}

	got := injectTxtVers(record)
	if got.Get(KeyTxtVers) != TxtVersion {
		t.Errorf("txtvers = %q, want %q", got.Get(KeyTxtVers), TxtVersion)
	}
	if _, ok := record[KeyTxtVers]; ok {
		t.Error("injectTxtVers mutated the caller's record")
	}

	// An existing txtvers is left alone.
	custom := injectTxtVers(CapabilityRecord{KeyTxtVers: {"7"}})
	if custom.Get(KeyTxtVers) != "7" {
		t.Errorf("txtvers = %q, want existing value preserved", custom.Get(KeyTxtVers))
	}
}
