// Package bytesize parses and formats byte counts such as "50KiB" or "5120".
//
// ByteSize decodes from config files (mapstructure via TextUnmarshaler), from
// JSON request bodies (number or string) and renders back to the shortest
// exact form, so a saved config reads the way it was written.
package bytesize

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// ByteSize is a size in bytes.
type ByteSize uint64

// Unit multipliers.
const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
)

var pattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

var units = map[string]ByteSize{
	"": B, "b": B,
	"k": KB, "kb": KB,
	"m": MB, "mb": MB,
	"g": GB, "gb": GB,
	"ki": KiB, "kib": KiB,
	"mi": MiB, "mib": MiB,
	"gi": GiB, "gib": GiB,
}

// Parse converts a human-readable size into bytes. Fractions are allowed with
// a unit ("1.5KiB") and truncated to whole bytes.
func Parse(s string) (ByteSize, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}
	unit, ok := units[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit %q", m[2])
	}

	if !strings.Contains(m[1], ".") {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
		}
		if n > math.MaxUint64/uint64(unit) {
			return 0, fmt.Errorf("byte size %q overflows", s)
		}
		return ByteSize(n) * unit, nil
	}

	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	v := f * float64(unit)
	if v >= math.MaxUint64 {
		return 0, fmt.Errorf("byte size %q overflows", s)
	}
	return ByteSize(v), nil
}

// String returns the largest binary unit that represents b exactly.
func (b ByteSize) String() string {
	for _, u := range []struct {
		size ByteSize
		name string
	}{{GiB, "GiB"}, {MiB, "MiB"}, {KiB, "KiB"}} {
		if b >= u.size && b%u.size == 0 {
			return strconv.FormatUint(uint64(b/u.size), 10) + u.name
		}
	}
	return strconv.FormatUint(uint64(b), 10)
}

// Human returns an approximate rendering for display, e.g. "1.50KiB".
func (b ByteSize) Human() string {
	switch {
	case b >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(b)/float64(GiB))
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// Uint64 returns the size in bytes.
func (b ByteSize) Uint64() uint64 {
	return uint64(b)
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// UnmarshalJSON accepts a JSON number or a size string.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("byte size must be a number or a string: %w", err)
	}
	return b.UnmarshalText([]byte(s))
}

// JSONSchema describes ByteSize as an integer or a size string.
func (ByteSize) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer", Minimum: json.Number("0")},
			{Type: "string", Pattern: `^\s*\d+(\.\d+)?\s*([KMG]i?B?|B)?\s*$`},
		},
		Description: `Size in bytes, or a string such as "50KiB" or "1MB"`,
	}
}
