package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// WorkflowProperties mirrors config/workflow_properties.yml of an observatory
// repository. Every value is read as a plain string.
type WorkflowProperties struct {
	ThresholdDate string `yaml:"data_quality_control_threshold_date"`
	Sediment      string `yaml:"sediment"`
	Water         string `yaml:"water"`
}

// LoadWorkflowProperties reads the YAML file at path.
// A missing file is not an error: it returns nil properties.
func LoadWorkflowProperties(path string) (*WorkflowProperties, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read workflow properties: %w", err)
	}

	var wp WorkflowProperties
	if err := yaml.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("parse workflow properties %s: %w", path, err)
	}
	return &wp, nil
}

// Apply overrides logsheet settings with the non-empty workflow properties
// and re-validates the result.
func (c *Config) Apply(wp *WorkflowProperties) error {
	if wp == nil {
		return nil
	}
	c.override(wp)
	return c.Validate()
}

func (c *Config) override(wp *WorkflowProperties) {
	if wp == nil {
		return
	}
	if wp.ThresholdDate != "" {
		c.Logsheets.ThresholdDate = wp.ThresholdDate
	}
	if wp.Sediment != "" {
		c.Logsheets.SedimentURL = wp.Sediment
	}
	if wp.Water != "" {
		c.Logsheets.WaterURL = wp.Water
	}
}

// SedimentEnabled reports whether sediment logsheets take part in the run.
func (l LogsheetConfig) SedimentEnabled() bool {
	return l.SedimentURL != "" && l.SedimentURL != Disabled
}

// WaterEnabled reports whether water logsheets take part in the run.
func (l LogsheetConfig) WaterEnabled() bool {
	return l.WaterURL != "" && l.WaterURL != Disabled
}
