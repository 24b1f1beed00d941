// Package config loads composer settings and invoice documents.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/model"
	"github.com/rezonia/invoice-composer/internal/pdfa"
	"github.com/rezonia/invoice-composer/internal/seal"
)

// Config holds all composer settings
type Config struct {
	Resources Resources `toml:"resources"`
	Output    Output    `toml:"output"`
	Document  Document  `toml:"document"`
	Seal      Seal      `toml:"seal"`
}

// Resources are files read once per build
type Resources struct {
	Font       string `toml:"font"`
	Logo       string `toml:"logo"`
	ICCProfile string `toml:"icc_profile"`
}

// Output selects the embedded e-invoice
type Output struct {
	Profile    string `toml:"profile"`
	Attachment string `toml:"attachment"`
}

// Document holds PDF document information
type Document struct {
	Title   string `toml:"title"`
	Creator string `toml:"creator"`
}

// Seal configures integrity seals
type Seal struct {
	Key string `toml:"key"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Resources: Resources{ICCProfile: pdfa.DefaultICCProfile},
		Output:    Output{Profile: string(einvoice.ProfileCII)},
		Document:  Document{Title: "Invoice", Creator: "invoice-composer"},
	}
}

// Load reads a TOML file over the defaults. An empty path yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if _, err := einvoice.ParseProfile(cfg.Output.Profile); err != nil {
		return nil, model.NewValidationError("output.profile", cfg.Output.Profile, "profile", err.Error())
	}
	return cfg, nil
}

// ApplyEnv overrides values from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv(pdfa.ICCEnv); v != "" {
		c.Resources.ICCProfile = v
	}
	if v := os.Getenv(seal.KeyEnv); v != "" {
		c.Seal.Key = v
	}
}

// Profile returns the configured e-invoice profile
func (c *Config) Profile() einvoice.Profile {
	p, err := einvoice.ParseProfile(c.Output.Profile)
	if err != nil {
		return einvoice.ProfileCII
	}
	return p
}

// ReadFont returns the configured font, or Go Regular when none is set
func (c *Config) ReadFont() ([]byte, error) {
	if c.Resources.Font == "" {
		return goregular.TTF, nil
	}
	data, err := os.ReadFile(c.Resources.Font)
	if err != nil {
		return nil, model.NewResourceError("font", c.Resources.Font, "cannot read font", err)
	}
	return data, nil
}

// ReadLogo returns the configured logo, or nil when none is set
func (c *Config) ReadLogo() ([]byte, error) {
	if c.Resources.Logo == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.Resources.Logo)
	if err != nil {
		return nil, model.NewResourceError("logo", c.Resources.Logo, "cannot read logo", err)
	}
	return data, nil
}
