package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints, the device geometry and the selected
// media backend's settings.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if err := cfg.Device.Geometry.Validate(); err != nil {
		return fmt.Errorf("device.geometry: %w", err)
	}
	if capacity := cfg.Device.Geometry.Capacity(); cfg.Device.InitialSize.Uint64() > capacity {
		return fmt.Errorf("device.initial_size %s exceeds device capacity of %d bytes", cfg.Device.InitialSize, capacity)
	}

	if err := cfg.Media.validate(); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			errs = append(errs, fmt.Errorf("%s: failed '%s=%s' (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			errs = append(errs, fmt.Errorf("%s: failed '%s'", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.Join(errs...)
}
