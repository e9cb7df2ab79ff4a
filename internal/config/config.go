// Copyright 2025 the shp-processor authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config handles configuration loading for the export pipeline.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/fieldstats"
	"github.com/aidingjing/shp-processor/internal/reconcile"
)

// Config represents the root configuration file structure.
type Config struct {
	// Database holds the MySQL connection settings used when rows come
	// from a query instead of a file.
	Database Database `yaml:"database,omitempty"`

	// SampleSize caps how many rows the field analyzer inspects.
	SampleSize int `yaml:"sample_size,omitempty"`

	// SuccessThreshold is the minimum parse success ratio for a column
	// to be recommended as spatial.
	SuccessThreshold float64 `yaml:"success_threshold,omitempty"`

	// ClosingEpsilon is the distance under which a sequence counts as
	// closed when classifying polygons.
	ClosingEpsilon float64 `yaml:"closing_epsilon,omitempty"`

	// MaxReasons caps how many rejection reasons are collected.
	MaxReasons int `yaml:"max_reasons,omitempty"`

	// RingOrientation is "cw", "ccw", or "keep".
	RingOrientation string `yaml:"ring_orientation,omitempty"`

	// CRS names the coordinate reference system written to the .prj
	// sidecar.  Empty means WGS84.
	CRS string `yaml:"crs,omitempty"`
}

// Database holds MySQL connection settings.
type Database struct {
	DSN   string `yaml:"dsn,omitempty"`
	Query string `yaml:"query,omitempty"`
}

// Default returns a configuration with the pipeline defaults filled in.
func Default() *Config {
	return &Config{
		SampleSize:       fieldstats.DefaultSampleCap,
		SuccessThreshold: fieldstats.DefaultThreshold,
		ClosingEpsilon:   coordparse.DefaultClosingEpsilon,
		MaxReasons:       reconcile.DefaultMaxReasons,
		RingOrientation:  "keep",
	}
}

// Load reads and parses the YAML configuration file from the specified
// path.  Settings absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SampleSize < 1 {
		return fmt.Errorf("sample_size must be positive, got %d", c.SampleSize)
	}
	// explicit zeros are rejected here, never remapped to the defaults
	if c.SuccessThreshold <= 0 || c.SuccessThreshold > 1 {
		return fmt.Errorf("success_threshold must be greater than 0 and at most 1, got %g", c.SuccessThreshold)
	}
	if c.ClosingEpsilon <= 0 {
		return fmt.Errorf("closing_epsilon must be positive, got %g", c.ClosingEpsilon)
	}
	if c.MaxReasons < 1 {
		return fmt.Errorf("max_reasons must be positive, got %d", c.MaxReasons)
	}
	switch c.RingOrientation {
	case "cw", "ccw", "keep":
	default:
		return fmt.Errorf("ring_orientation must be cw, ccw, or keep, got %q", c.RingOrientation)
	}
	return nil
}
