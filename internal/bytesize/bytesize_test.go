package bytesize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"plain zero", "0", 0, false},
		{"plain bytes", "5120", 5120, false},
		{"bytes suffix", "512B", 512, false},
		{"lowercase suffix", "512b", 512, false},
		{"kibibytes Ki", "50Ki", 50 * 1024, false},
		{"kibibytes KiB", "50KiB", 50 * 1024, false},
		{"mebibytes", "2MiB", 2 * 1024 * 1024, false},
		{"gibibytes", "1GiB", 1024 * 1024 * 1024, false},
		{"kilobytes", "5KB", 5000, false},
		{"megabytes", "1M", 1000 * 1000, false},
		{"case insensitive", "50kib", 50 * 1024, false},
		{"surrounding space", "  4 KiB ", 4096, false},
		{"fraction", "1.5KiB", 1536, false},
		{"fraction truncated", "0.3KiB", 307, false},

		{"empty", "", 0, true},
		{"whitespace", "   ", 0, true},
		{"unknown unit", "1Xi", 0, true},
		{"negative", "-1KiB", 0, true},
		{"no number", "KiB", 0, true},
		{"overflow", "99999999999999999999GiB", 0, true},
		{"multiplied overflow", "17179869184GiB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByteSize_String(t *testing.T) {
	tests := []struct {
		input ByteSize
		want  string
	}{
		{0, "0"},
		{512, "512"},
		{1024, "1KiB"},
		{50 * KiB, "50KiB"},
		{1536, "1536"},
		{3 * MiB, "3MiB"},
		{GiB, "1GiB"},
		{5000, "5000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.String())

			back, err := Parse(tt.input.String())
			require.NoError(t, err)
			assert.Equal(t, tt.input, back)
		})
	}
}

func TestByteSize_Human(t *testing.T) {
	assert.Equal(t, "512B", ByteSize(512).Human())
	assert.Equal(t, "1.50KiB", ByteSize(1536).Human())
	assert.Equal(t, "2.00MiB", (2 * MiB).Human())
}

func TestByteSize_JSON(t *testing.T) {
	var req struct {
		Size ByteSize `json:"size"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"size": 51200}`), &req))
	assert.Equal(t, 50*KiB, req.Size)

	require.NoError(t, json.Unmarshal([]byte(`{"size": "50KiB"}`), &req))
	assert.Equal(t, 50*KiB, req.Size)

	assert.Error(t, json.Unmarshal([]byte(`{"size": "lots"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"size": true}`), &req))

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"size": "50KiB"}`, string(out))
}
