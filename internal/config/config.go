// Package config loads the single immutable configuration object shared by
// every binary.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"trendbuild/internal/classify"
	"trendbuild/internal/decision"
	"trendbuild/internal/extrapolation"
	"trendbuild/internal/feed"
	"trendbuild/internal/logging"
	"trendbuild/internal/notify"
	"trendbuild/internal/reporting"
	"trendbuild/internal/storage/backend"
	"trendbuild/internal/tracker"
)

// Config is the full application configuration.
type Config struct {
	Log        logging.Config     `koanf:"log"`
	Feed       feed.Config        `koanf:"feed"`
	Storage    backend.Config     `koanf:"storage"`
	Notify     notify.Config      `koanf:"notify"`
	Server     ServerConfig       `koanf:"server"`
	Output     OutputConfig       `koanf:"output"`
	Accounts   reporting.Accounts `koanf:"accounts"`
	Thresholds Thresholds         `koanf:"thresholds"`
}

// ServerConfig configures the long-running server binary.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gt=0"`
	PollInterval    time.Duration `koanf:"poll_interval" validate:"gt=0"`
	RunOnStart      bool          `koanf:"run_on_start"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// OutputConfig configures where rendered reports are written.
type OutputConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// Thresholds groups every numeric decision constant by component.
type Thresholds struct {
	Extrapolation extrapolation.Config `koanf:"extrapolation"`
	Classify      classify.Config      `koanf:"classify"`
	Decision      decision.Config      `koanf:"decision"`
	Tracker       tracker.Config       `koanf:"tracker"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Log:     logging.DefaultConfig(),
		Feed:    feed.DefaultConfig(),
		Storage: backend.DefaultConfig(),
		Notify:  notify.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			RefreshInterval: 24 * time.Hour,
			PollInterval:    30 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
		},
		Output:   OutputConfig{Dir: "output"},
		Accounts: reporting.DefaultAccounts(),
		Thresholds: Thresholds{
			Extrapolation: extrapolation.DefaultConfig(),
			Classify:      classify.DefaultConfig(),
			Decision:      decision.DefaultConfig(),
			Tracker:       tracker.DefaultConfig(),
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs the struct tag rules and the cross-field checks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.Join(msgs...)
		}
		return err
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}

	e := c.Thresholds.Extrapolation
	if !(e.Explosive > e.Strong && e.Strong > e.Moderate && e.Moderate > e.Flat && e.Flat > e.Declining) {
		return fmt.Errorf("thresholds.extrapolation: trajectory bands must be strictly descending")
	}

	cl := c.Thresholds.Classify
	if cl.ActNow.MinVelocity < cl.SixToTwelve.MinVelocity {
		return fmt.Errorf("thresholds.classify: act_now velocity below six_to_twelve velocity")
	}

	if c.Server.PollInterval > c.Server.RefreshInterval {
		return fmt.Errorf("server.poll_interval (%s) exceeds refresh_interval (%s)", c.Server.PollInterval, c.Server.RefreshInterval)
	}
	return nil
}

// StreakTTL returns the streak cache lifetime as a duration.
func (c *Config) StreakTTL() time.Duration {
	return time.Duration(c.Thresholds.Decision.StreakTTLDays) * 24 * time.Hour
}
