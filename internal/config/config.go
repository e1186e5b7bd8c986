// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/woozymasta/trackmap/internal/render"
	"github.com/woozymasta/trackmap/internal/series"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when a value is not set.
const (
	DefaultWidth        = 800
	DefaultHeight       = 600
	DefaultWebPQuality  = 85
	DefaultImageTimeout = 15 * time.Second
)

// Config represents the root configuration file structure.
type Config struct {
	Panels       []Panel       `yaml:"panels" json:"panels"`
	ImageTimeout time.Duration `yaml:"image_timeout,omitempty" json:"-"`
	Width        int           `yaml:"width,omitempty" json:"-"`
	Height       int           `yaml:"height,omitempty" json:"-"`
	WebPQuality  float32       `yaml:"webp_quality,omitempty" json:"-"`
}

// Panel represents a single hosted widget.
type Panel struct {
	Index *int `yaml:"index,omitempty" json:"index,omitempty"`

	// defining series directly in config.yaml
	SeriesInline []series.Series `yaml:"series,omitempty" json:"-"`

	Name    string         `yaml:"name" json:"name"`
	Data    string         `yaml:"data,omitempty" json:"-"` // series file or URL
	Aliases []string       `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Options render.Options `yaml:"options" json:"options"`
	Width   int            `yaml:"width,omitempty" json:"width"`
	Height  int            `yaml:"height,omitempty" json:"height"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize fills defaults and checks that panel names and aliases are
// unique.
func (c *Config) Normalize() error {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.WebPQuality <= 0 || c.WebPQuality > 100 {
		c.WebPQuality = DefaultWebPQuality
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = DefaultImageTimeout
	}

	seen := make(map[string]string)
	claim := func(name, owner string) error {
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("panel name %q used by %q and %q", name, prev, owner)
		}
		seen[name] = owner
		return nil
	}

	for i := range c.Panels {
		p := &c.Panels[i]
		if p.Name == "" {
			return fmt.Errorf("panel #%d has no name", i)
		}
		if p.Width <= 0 {
			p.Width = c.Width
		}
		if p.Height <= 0 {
			p.Height = c.Height
		}

		if err := claim(p.Name, p.Name); err != nil {
			return err
		}
		for _, alias := range p.Aliases {
			if err := claim(alias, p.Name); err != nil {
				return err
			}
		}
	}

	return nil
}
