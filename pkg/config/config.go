// Package config loads the static tuning surface of the FHSS core: band
// selection, sequence parameters, anti-jam thresholds, and mode-switch
// policy, from a YAML file (spec §6 "Band table format", §4.D config
// fields, §4.E policy fields).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/herlein/glockcore/pkg/antijam"
	"github.com/herlein/glockcore/pkg/band"
	"github.com/herlein/glockcore/pkg/freqmap"
)

// SequenceConfig holds the hop-sequence generation parameters (spec §4.A).
type SequenceConfig struct {
	Seed uint32 `yaml:"seed"`
	N    uint16 `yaml:"n"`
	Sync uint16 `yaml:"sync"`
}

// RadioConfig holds the per-radio band/scale/correction selection (spec §4.B).
type RadioConfig struct {
	Band            string        `yaml:"band"`
	SecondaryBand   string        `yaml:"secondary_band,omitempty"`
	Scale           freqmap.Scale `yaml:"scale"`
	MaxCorrectionHz int32         `yaml:"max_correction_hz"`
}

// SwitchConfig holds the initial mode-switch policy (spec §4.E).
type SwitchConfig struct {
	DebounceMs     uint32 `yaml:"debounce_ms"`
	ControllerOnly bool   `yaml:"controller_only"`
}

// Config is the top-level configuration document.
type Config struct {
	Sequence SequenceConfig `yaml:"sequence"`
	Radio    RadioConfig    `yaml:"radio"`
	AntiJam  antijam.Config `yaml:"anti_jam"`
	Switch   SwitchConfig   `yaml:"switch"`
}

// Load reads and parses a Config from a YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &c, nil
}

// ResolveBand resolves a band name against the default ISM table (spec §6
// "Band table format").
func ResolveBand(name string) (band.Descriptor, error) {
	d, ok := band.DefaultTable().ByName(name)
	if !ok {
		return band.Descriptor{}, fmt.Errorf("config: unknown band %q", name)
	}
	return d, nil
}

// BuildFreqMap constructs a *freqmap.Map from the radio configuration,
// resolving primary and (if present) secondary bands by name.
func (c *Config) BuildFreqMap() (*freqmap.Map, error) {
	primary, err := ResolveBand(c.Radio.Band)
	if err != nil {
		return nil, err
	}
	scale := c.Radio.Scale
	if scale == 0 {
		scale = freqmap.ScaleDirectHz
	}
	m := freqmap.New(primary, scale, c.Radio.MaxCorrectionHz)

	if c.Radio.SecondaryBand != "" {
		secondary, err := ResolveBand(c.Radio.SecondaryBand)
		if err != nil {
			return nil, err
		}
		m.SetSecondary(secondary)
	}
	return m, nil
}
