package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := GetRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	t.Cleanup(func() {
		root.SetArgs(nil)
		resetFlags(root)
	})
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	Version = "1.2.3"
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ssdsim 1.2.3")
	assert.Contains(t, out, "Go version:")
}

func TestConfigLifecycle(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	require.FileExists(t, path)

	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err, "existing file is not overwritten without --force")

	out, err = execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "Media type:      memory")

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	var shown map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	assert.Contains(t, shown, "device")
	assert.Contains(t, shown, "media")
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device:\n  geometry:\n    logical_blocks: 50\n"), 0600))

	_, err := execute(t, "config", "validate", "--config", path)
	require.Error(t, err)
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "ssdsim Configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"logging", "telemetry", "metrics", "api", "device", "media", "shutdown_timeout"} {
		assert.Contains(t, props, key)
	}
}

func TestGetConfigSource(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Equal(t, "/etc/ssdsim.yaml", getConfigSource("/etc/ssdsim.yaml"))
	assert.Equal(t, "defaults", getConfigSource(""))
}

// resetFlags restores every flag to its default so commands can run again.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
