package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables, then overlays the
// workspace's workflow properties file when there is one.
// It applies defaults for unset values and validates the merged result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	wp, err := LoadWorkflowProperties(cfg.Workspace.WorkflowPropertiesPath())
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg.override(wp)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Workspace.Root == "" {
		errs = append(errs, "DQC_WORKSPACE is required")
	}

	if _, err := time.Parse(time.DateOnly, c.Logsheets.ThresholdDate); err != nil {
		errs = append(errs, fmt.Sprintf("DATA_QUALITY_CONTROL_THRESHOLD_DATE (%q) must be YYYY-MM-DD", c.Logsheets.ThresholdDate))
	}
	if c.Logsheets.SchemaURL == "" {
		errs = append(errs, "DQC_SCHEMA_URL must not be empty")
	}

	if c.Authority.ORCIDBaseURL == "" {
		errs = append(errs, "ORCID_BASE_URL must not be empty")
	}
	if c.Authority.NCBIBaseURL == "" {
		errs = append(errs, "NCBI_BASE_URL must not be empty")
	}
	if c.Authority.Timeout < 0 {
		errs = append(errs, "AUTHORITY_TIMEOUT must be non-negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Workspace: {Root: %q}, ", c.Workspace.Root)
	fmt.Fprintf(&b, "Logsheets: {Sediment: %q, Water: %q, Threshold: %q}, ",
		c.Logsheets.SedimentURL, c.Logsheets.WaterURL, c.Logsheets.ThresholdDate)
	fmt.Fprintf(&b, "Authority: {Timeout: %s}, ", c.Authority.Timeout)
	if c.Database.URL != "" {
		b.WriteString("Database: {URL: [MASKED]}, ")
	}
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
