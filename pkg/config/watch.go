package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/marmos91/ssdsim/internal/logger"
)

// WatchLogging re-reads the config file whenever it changes and applies the
// new logging level and format. Other settings need a restart. It is a no-op
// when there is no config file.
func WatchLogging(configPath string) error {
	v := viper.New()
	if err := setupViper(v, configPath); err != nil {
		return err
	}
	found, err := readConfigFile(v)
	if err != nil || !found {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		reloadLogging(v, e.Name)
	})
	v.WatchConfig()
	logger.Debug("Watching configuration file", logger.Path(v.ConfigFileUsed()))
	return nil
}

// reloadLogging applies the logging section of the current viper state.
// An invalid file is logged and ignored.
func reloadLogging(v *viper.Viper, name string) {
	cfg, err := decode(v)
	if err == nil {
		err = validate.Struct(&cfg.Logging)
	}
	if err != nil {
		logger.Warn("Ignoring invalid configuration change", logger.Path(name), logger.Err(err))
		return
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	logger.Info("Logging configuration reloaded",
		logger.Path(name),
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)
}
