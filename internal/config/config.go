// Package config is used to load the configuration file
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/blacktop/provinfo/pkg/provision"
	"github.com/spf13/viper"
)

// Formats supported by the info command.
var Formats = []string{"text", "json", "yaml"}

// Config is the configuration struct
type Config struct {
	Format      string `mapstructure:"format"`
	Envelope    string `mapstructure:"envelope"`
	Concurrency int    `mapstructure:"concurrency"`
	CacheSize   int    `mapstructure:"cache-size"`
	ProfilesDir string `mapstructure:"profiles-dir"`
}

func (c *Config) verify() error {
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = "text"
	} else if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("config: invalid format %q (must be one of %s)", c.Format, strings.Join(Formats, ", "))
	}

	if c.Envelope == "" {
		c.Envelope = provision.DefaultEnvelopeBackend
	} else if _, err := provision.NewEnvelopeOpener(c.Envelope); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("config: concurrency must not be negative")
	} else if c.Concurrency == 0 {
		c.Concurrency = runtime.NumCPU()
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("config: cache-size must not be negative")
	}

	if c.ProfilesDir == "" || strings.HasPrefix(c.ProfilesDir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("config: failed to get user home directory: %v", err)
		}
		if c.ProfilesDir == "" {
			c.ProfilesDir = filepath.Join(home, "Library", "MobileDevice", "Provisioning Profiles")
		} else {
			c.ProfilesDir = filepath.Join(home, strings.TrimPrefix(c.ProfilesDir, "~"))
		}
	}

	return nil
}

// Load unmarshals and verifies the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %w", err)
	}

	return &c, nil
}

// LoadConfig loads the configuration file
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}
