package discovery

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Well-known capability record keys.
const (
	KeyTxtVers    = "txtvers"
	KeyCodecs     = "codecs"
	KeyChannels   = "channels"
	KeySampleRate = "samplerate"
	KeyFeatures   = "features"

	// TxtVersion is the capability record format version
	TxtVersion = "1"
)

// CapabilityRecord maps capability keys to value lists. On the wire the
// record is standard DNS-TXT key/value data: each pair is one
// length-prefixed "key=v1,v2,..." string. The record is deliberately a
// loose map rather than a struct: unknown keys pass through untouched
// and malformed entries are dropped, never fatal, so a broken key can't
// abort discovery of an otherwise-valid device.
type CapabilityRecord map[string][]string

// Encode serializes the record to DNS-TXT wire form: for each key, one
// string of "key=value,value,..." prefixed by a single length byte.
// Keys are emitted in sorted order so encoding is deterministic.
// An entry longer than the 255-byte TXT string limit is truncated.
func (r CapabilityRecord) Encode() []byte {
	var buf []byte
	for _, s := range r.Strings() {
		if len(s) > 255 {
			s = s[:255]
		}
		buf = append(buf, byte(len(s)))
		buf = append(buf, s...)
	}
	return buf
}

// Strings returns the record as "key=v1,v2,..." strings in sorted key
// order, the form the mDNS library publishes directly.
func (r CapabilityRecord) Strings() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+strings.Join(r[k], ","))
	}
	return out
}

// DecodeCapabilityRecord parses DNS-TXT wire bytes into a record.
// Decoding is lenient: a length byte that overruns the buffer ends the
// parse, entries that are not valid text are dropped, and a key seen
// twice keeps its first value. None of these are errors.
func DecodeCapabilityRecord(data []byte) CapabilityRecord {
	record := make(CapabilityRecord)
	for len(data) > 0 {
		n := int(data[0])
		data = data[1:]
		if n == 0 {
			continue
		}
		if n > len(data) {
			break
		}
		entry := data[:n]
		data = data[n:]
		if !utf8.Valid(entry) {
			continue
		}
		addEntry(record, string(entry))
	}
	return record
}

// CapabilityRecordFromStrings parses "key=value" TXT strings, the form
// the mDNS library delivers in service entries.
func CapabilityRecordFromStrings(txt []string) CapabilityRecord {
	record := make(CapabilityRecord)
	for _, entry := range txt {
		if !utf8.ValidString(entry) {
			continue
		}
		addEntry(record, entry)
	}
	return record
}

func addEntry(record CapabilityRecord, entry string) {
	key, val, found := strings.Cut(entry, "=")
	if key == "" {
		return
	}
	if _, dup := record[key]; dup {
		return
	}
	if !found || val == "" {
		record[key] = nil
		return
	}
	record[key] = strings.Split(val, ",")
}

// Get returns the first value for key, or "" when absent.
func (r CapabilityRecord) Get(key string) string {
	if vals := r[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Codecs returns the announced codec names, nil when absent.
func (r CapabilityRecord) Codecs() []string {
	return r[KeyCodecs]
}

// Channels returns the announced channel count, defaulting to 2 when
// absent or non-numeric.
func (r CapabilityRecord) Channels() int {
	if n, err := strconv.Atoi(r.Get(KeyChannels)); err == nil && n > 0 {
		return n
	}
	return 2
}

// SampleRates returns the announced sample rates in announcement order.
func (r CapabilityRecord) SampleRates() []int {
	return ParseSampleRates(strings.Join(r[KeySampleRate], ","))
}

// Features returns the announced feature tags, nil when absent.
func (r CapabilityRecord) Features() []string {
	return r[KeyFeatures]
}

// ParseSampleRates parses a comma-separated rate list. Non-numeric
// tokens are silently skipped.
func ParseSampleRates(list string) []int {
	var rates []int
	for _, tok := range strings.Split(list, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(tok)); err == nil {
			rates = append(rates, n)
		}
	}
	return rates
}
