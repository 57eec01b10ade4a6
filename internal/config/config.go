// Package config provides centralized configuration for a quality control run.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"path/filepath"
	"time"
)

// Disabled is the logsheet URL value that switches a habitat off.
const Disabled = "nan"

// Config holds all run configuration.
// All settings can be configured via environment variables.
type Config struct {
	Workspace WorkspaceConfig
	Logsheets LogsheetConfig
	Authority AuthorityConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
}

// WorkspaceConfig locates the directories a run reads from and writes to.
type WorkspaceConfig struct {
	// Root is the checked-out governance repository (default: /github/workspace)
	Root string `env:"DQC_WORKSPACE" envAlt:"GITHUB_WORKSPACE" default:"/github/workspace"`

	// WorkflowProperties is an optional YAML file overriding logsheet settings,
	// relative to Root unless absolute.
	WorkflowProperties string `env:"DQC_WORKFLOW_PROPERTIES" default:"config/workflow_properties.yml"`
}

// LogsheetConfig selects habitats and the validation window.
type LogsheetConfig struct {
	// SedimentURL is the sediment logsheet source; "nan" disables sediment.
	SedimentURL string `env:"SEDIMENT_LOGSHEET_URL" default:"nan"`

	// WaterURL is the water logsheet source; "nan" disables water.
	WaterURL string `env:"WATER_LOGSHEET_URL" default:"nan"`

	// ThresholdDate excludes samples collected on or after it (YYYY-MM-DD).
	// Required, from the environment or the workflow properties file.
	ThresholdDate string `env:"DATA_QUALITY_CONTROL_THRESHOLD_DATE"`

	// SchemaURL is the extended logsheet schema, as a path or http(s) URL.
	SchemaURL string `env:"DQC_SCHEMA_URL" default:"https://raw.githubusercontent.com/emo-bon/observatory-profile/main/logsheet_schema_extended.csv"`
}

// AuthorityConfig holds settings for the external identity registries.
type AuthorityConfig struct {
	// ORCIDBaseURL is the ORCID public API root.
	ORCIDBaseURL string `env:"ORCID_BASE_URL" default:"https://pub.orcid.org"`

	// NCBIBaseURL is the NCBI web root hosting the Taxonomy Browser.
	NCBIBaseURL string `env:"NCBI_BASE_URL" default:"https://www.ncbi.nlm.nih.gov"`

	// Timeout bounds a single lookup; a timed out lookup counts as unresolved.
	Timeout time.Duration `env:"AUTHORITY_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds the optional violation sink.
type DatabaseConfig struct {
	// URL is a PostgreSQL connection string; empty disables the sink.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// RawDir is where the unfiltered logsheets live.
func (w WorkspaceConfig) RawDir() string {
	return filepath.Join(w.Root, "logsheets", "raw")
}

// FilteredDir is where threshold-filtered logsheets are written.
func (w WorkspaceConfig) FilteredDir() string {
	return filepath.Join(w.Root, "logsheets", "filtered")
}

// TransformedDir is where repaired logsheets are written.
func (w WorkspaceConfig) TransformedDir() string {
	return filepath.Join(w.Root, "logsheets", "transformed")
}

// QualityDir holds the run log and both reports.
func (w WorkspaceConfig) QualityDir() string {
	return filepath.Join(w.Root, "data-quality-control")
}

// WorkflowPropertiesPath resolves WorkflowProperties against Root.
func (w WorkspaceConfig) WorkflowPropertiesPath() string {
	if w.WorkflowProperties == "" || filepath.IsAbs(w.WorkflowProperties) {
		return w.WorkflowProperties
	}
	return filepath.Join(w.Root, w.WorkflowProperties)
}
