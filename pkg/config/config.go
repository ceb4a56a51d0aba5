// Package config holds the electrical system parameters and the settings of
// the binaries. Values are layered: built-in defaults, then an optional YAML
// file, then APWR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dd0wney/apwr-dropcalc/pkg/cable"
	"github.com/dd0wney/apwr-dropcalc/pkg/validation"
)

// EnvPrefix is prepended to every environment override, e.g.
// APWR_SYSTEM_SOURCE_VOLTAGE_V=24.
const EnvPrefix = "APWR"

// Default system parameters.
const (
	DefaultSourceVoltageV    = 48.0
	DefaultMinVoltageV       = 36.0
	DefaultMaxLinkCurrentA   = 10.0
	DefaultReferenceVoltageV = 48.0
	DefaultCableAreaMM2      = 4.0
)

// SystemParams are the electrical parameters shared by every link.
type SystemParams struct {
	SourceVoltageV    float64 `yaml:"source_voltage_v" json:"source_voltage_v" mapstructure:"source_voltage_v"`
	MinVoltageV       float64 `yaml:"min_voltage_v" json:"min_voltage_v" mapstructure:"min_voltage_v"`
	MaxLinkCurrentA   float64 `yaml:"max_link_current_a" json:"max_link_current_a" mapstructure:"max_link_current_a"`
	ReferenceVoltageV float64 `yaml:"reference_voltage_v" json:"reference_voltage_v" mapstructure:"reference_voltage_v"`
	CableAreaMM2      float64 `yaml:"cable_area_mm2" json:"cable_area_mm2" mapstructure:"cable_area_mm2"`

	// CableModel is "one-way" (ρL/A) or "round-trip" (2L/κA).
	CableModel string `yaml:"cable_model" json:"cable_model" mapstructure:"cable_model"`
	// CableConstant is ρ or κ for the chosen model. Zero selects copper.
	CableConstant float64 `yaml:"cable_constant,omitempty" json:"cable_constant,omitempty" mapstructure:"cable_constant"`
}

// Defaults returns the parameters of the standard 48 V installation.
func Defaults() SystemParams {
	return SystemParams{
		SourceVoltageV:    DefaultSourceVoltageV,
		MinVoltageV:       DefaultMinVoltageV,
		MaxLinkCurrentA:   DefaultMaxLinkCurrentA,
		ReferenceVoltageV: DefaultReferenceVoltageV,
		CableAreaMM2:      DefaultCableAreaMM2,
		CableModel:        cable.ModelOneWay,
	}
}

// Model resolves the configured resistance model.
func (p SystemParams) Model() (cable.Model, error) {
	return cable.ModelByName(p.CableModel, p.CableConstant)
}

// AllowedDropPercent is the largest drop, relative to the reference voltage,
// that keeps every hub at or above the minimum voltage.
func (p SystemParams) AllowedDropPercent() float64 {
	if p.ReferenceVoltageV <= 0 {
		return 0
	}
	return (p.SourceVoltageV - p.MinVoltageV) / p.ReferenceVoltageV * 100
}

// Validate reports every invalid parameter at once.
func (p SystemParams) Validate() error {
	return p.Collect("system").Err()
}

// Collect adds the parameter checks to a collector under prefix.
func (p SystemParams) Collect(prefix string) *validation.Collector {
	c := validation.NewCollector(prefix)
	c.PositiveFloat("source_voltage_v", p.SourceVoltageV).
		PositiveFloat("min_voltage_v", p.MinVoltageV).
		PositiveFloat("max_link_current_a", p.MaxLinkCurrentA).
		PositiveFloat("reference_voltage_v", p.ReferenceVoltageV).
		PositiveFloat("cable_area_mm2", p.CableAreaMM2).
		NonNegativeFloat("cable_constant", p.CableConstant).
		OneOf("cable_model", p.CableModel, cable.Models())

	c.When(p.MinVoltageV > 0 && p.SourceVoltageV > 0, func(c *validation.Collector) {
		c.LessThan("min_voltage_v", p.MinVoltageV, p.SourceVoltageV, "source_voltage_v")
	})
	return c
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	// RateLimit is the sustained number of calculations per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	// MaxBodyBytes caps the size of a calculation request.
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// ReportConfig controls where exported reports go.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	// Formats lists exporters to run: csv, json, yaml, txt, png, svg, pdf.
	Formats  []string `yaml:"formats" mapstructure:"formats"`
	S3Bucket string   `yaml:"s3_bucket" mapstructure:"s3_bucket"`
	S3Prefix string   `yaml:"s3_prefix" mapstructure:"s3_prefix"`
	S3Region string   `yaml:"s3_region" mapstructure:"s3_region"`
}

// Config is the complete configuration of a binary.
type Config struct {
	System   SystemParams `yaml:"system" mapstructure:"system"`
	Server   ServerConfig `yaml:"server" mapstructure:"server"`
	Report   ReportConfig `yaml:"report" mapstructure:"report"`
	LogLevel string       `yaml:"log_level" mapstructure:"log_level"`
	Workers  int          `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		System: Defaults(),
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       20,
			RateBurst:       40,
			MaxBodyBytes:    1 << 20,
		},
		Report: ReportConfig{
			OutputDir: ".",
			Formats:   []string{"csv"},
		},
		LogLevel: "info",
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	col := validation.NewCollector("")
	col.Merge(c.System.Collect("system"))

	srv := validation.NewCollector("server")
	srv.NonNegativeFloat("rate_limit", c.Server.RateLimit).
		When(c.Server.RateLimit > 0, func(v *validation.Collector) {
			v.Positive("rate_burst", c.Server.RateBurst)
		})
	if c.Server.MaxBodyBytes <= 0 {
		srv.Fail("max_body_bytes", c.Server.MaxBodyBytes, "must be positive")
	}
	col.Merge(srv)

	rep := validation.NewCollector("report")
	for _, f := range c.Report.Formats {
		rep.OneOf("formats", f, ReportFormats)
	}
	col.Merge(rep)

	if c.Workers < 0 {
		col.Fail("workers", c.Workers, "must be non-negative")
	}
	return col.Err()
}

// ReportFormats are the recognised exporter names.
var ReportFormats = []string{"csv", "json", "yaml", "txt", "png", "svg", "pdf"}

// ErrConfigFile is returned when an explicitly named file cannot be read.
var ErrConfigFile = errors.New("config file")

// Load layers defaults, the YAML file at path (if non-empty) and APWR_*
// environment variables, then validates the result.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrConfigFile, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.System.CableModel = strings.ToLower(strings.TrimSpace(cfg.System.CableModel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	d := DefaultConfig()
	v.SetDefault("system.source_voltage_v", d.System.SourceVoltageV)
	v.SetDefault("system.min_voltage_v", d.System.MinVoltageV)
	v.SetDefault("system.max_link_current_a", d.System.MaxLinkCurrentA)
	v.SetDefault("system.reference_voltage_v", d.System.ReferenceVoltageV)
	v.SetDefault("system.cable_area_mm2", d.System.CableAreaMM2)
	v.SetDefault("system.cable_model", d.System.CableModel)
	v.SetDefault("system.cable_constant", d.System.CableConstant)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)

	v.SetDefault("report.output_dir", d.Report.OutputDir)
	v.SetDefault("report.formats", d.Report.Formats)
	v.SetDefault("report.s3_bucket", d.Report.S3Bucket)
	v.SetDefault("report.s3_prefix", d.Report.S3Prefix)
	v.SetDefault("report.s3_region", d.Report.S3Region)

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("workers", d.Workers)
	return v
}
