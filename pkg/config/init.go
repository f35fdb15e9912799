package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# ssdsim configuration file
#
# Every setting can be overridden with an SSDSIM_ environment variable, e.g.
#   SSDSIM_LOGGING_LEVEL=DEBUG
#   SSDSIM_MEDIA_TYPE=fs SSDSIM_MEDIA_FS_PATH=/var/lib/ssdsim
#
# Media backends: memory, fs, mmap, badger, s3, sql. Only the section named
# by media.type is read.

`

// InitConfig writes a default config file to the default location.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a default config file to path. An existing file is
// only replaced when force is set.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
	}

	cfg := GetDefaultConfig()
	cfg.Media.FS = map[string]any{"path": filepath.Join(filepath.Dir(path), "nand")}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
