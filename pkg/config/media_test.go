package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/badger"
	"github.com/marmos91/ssdsim/pkg/nand/fs"
	"github.com/marmos91/ssdsim/pkg/nand/memory"
	"github.com/marmos91/ssdsim/pkg/nand/mmap"
	"github.com/marmos91/ssdsim/pkg/nand/sql"
)

func TestCreateStore(t *testing.T) {
	geom := nand.DefaultGeometry()
	dir := t.TempDir()

	tests := []struct {
		name  string
		media MediaConfig
		check func(t *testing.T, s nand.Store)
	}{
		{
			name:  "memory",
			media: MediaConfig{Type: MediaMemory},
			check: func(t *testing.T, s nand.Store) { assert.IsType(t, &memory.Store{}, s) },
		},
		{
			name:  "fs",
			media: MediaConfig{Type: MediaFS, FS: map[string]any{"path": filepath.Join(dir, "fs"), "file_mode": "420"}},
			check: func(t *testing.T, s nand.Store) { assert.IsType(t, &fs.Store{}, s) },
		},
		{
			name:  "mmap",
			media: MediaConfig{Type: MediaMmap, Mmap: map[string]any{"path": filepath.Join(dir, "mmap")}},
			check: func(t *testing.T, s nand.Store) { assert.IsType(t, &mmap.Store{}, s) },
		},
		{
			name:  "badger",
			media: MediaConfig{Type: MediaBadger, Badger: map[string]any{"in_memory": "true"}},
			check: func(t *testing.T, s nand.Store) { assert.IsType(t, &badger.Store{}, s) },
		},
		{
			name:  "sql",
			media: MediaConfig{Type: MediaSQL},
			check: func(t *testing.T, s nand.Store) { assert.IsType(t, &sql.Store{}, s) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.media.validate())

			store, err := CreateStore(t.Context(), tt.media, geom)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			tt.check(t, store)
			assert.Equal(t, geom, store.Geometry())
			require.NoError(t, store.Provision(t.Context()))
			require.NoError(t, store.HealthCheck(t.Context()))
		})
	}
}

func TestMediaConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		media MediaConfig
	}{
		{"fs without path", MediaConfig{Type: MediaFS}},
		{"mmap without path", MediaConfig{Type: MediaMmap}},
		{"badger without path", MediaConfig{Type: MediaBadger}},
		{"s3 without bucket", MediaConfig{Type: MediaS3, S3: map[string]any{"region": "eu-west-1"}}},
		{"postgres without host", MediaConfig{Type: MediaSQL, SQL: map[string]any{"type": "postgres"}}},
		{"wrong field type", MediaConfig{Type: MediaFS, FS: map[string]any{"path": map[string]any{"nested": 1}}}},
		{"unknown type", MediaConfig{Type: "tape"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.media.validate())
		})
	}
}

func TestFSConfig_Defaults(t *testing.T) {
	media := MediaConfig{Type: MediaFS, FS: map[string]any{"path": "/data"}}
	cfg, err := media.fsConfig()
	require.NoError(t, err)
	assert.Equal(t, fs.DefaultConfig("/data"), cfg)

	media.FS["create_dir"] = false
	cfg, err = media.fsConfig()
	require.NoError(t, err)
	assert.False(t, cfg.CreateDir)
}

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Validate(GetDefaultConfig()))

	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 2
	assert.Error(t, Validate(cfg))

	cfg = GetDefaultConfig()
	cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "heat"}
	assert.Error(t, Validate(cfg))

	cfg = GetDefaultConfig()
	cfg.API.Listen = "not-an-address"
	assert.Error(t, Validate(cfg))
}
