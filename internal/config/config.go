package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/risk"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a nephtrends CLI run.
type Config struct {
	DSN         string
	FilePath    string
	OutPath     string
	LogFormat   string // "text" or "json"
	AsOf        string // YYYY-MM-DD or RFC 3339; empty means today
	Force       bool
	KeepStaging bool
	JSON        bool
	KFRERegion  string
	Aliases     map[string]Alias // keyed by variable name, e.g. "uacr"
}

// Alias adds source names for one tracked variable on top of the defaults.
type Alias struct {
	Investigations []string `yaml:"investigations"`
	VisitFields    []string `yaml:"visit_fields"`
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	KFRERegion string           `yaml:"kfre_region"`
	Aliases    map[string]Alias `yaml:"aliases"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// A region already set on the command line is kept.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.KFRERegion == "" {
		c.KFRERegion = yc.KFRERegion
	}
	c.Aliases = yc.Aliases
	return c.validateAliases()
}

// validateAliases checks that every alias key names a tracked variable.
func (c *Config) validateAliases() error {
	for name := range c.Aliases {
		if _, ok := model.VariableByName(name); !ok {
			return fmt.Errorf("unknown variable %q in aliases", name)
		}
	}
	return nil
}

// Sources returns the default variable sources extended with the configured
// aliases. The package defaults are never modified.
func (c *Config) Sources() []model.VariableSource {
	out := make([]model.VariableSource, len(model.AllVariables))
	for i, vs := range model.AllVariables {
		vs.InvestigationNames = append([]string(nil), vs.InvestigationNames...)
		vs.VisitFields = append([]string(nil), vs.VisitFields...)
		if a, ok := c.Aliases[string(vs.Variable)]; ok {
			vs.InvestigationNames = append(vs.InvestigationNames, a.Investigations...)
			vs.VisitFields = append(vs.VisitFields, a.VisitFields...)
		}
		out[i] = vs
	}
	return out
}

// KidneyFailureModel builds the KFRE model for the configured region.
func (c *Config) KidneyFailureModel() (*risk.KFRE4, error) {
	return risk.NewKFRE4(c.KFRERegion)
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	if _, err := c.KidneyFailureModel(); err != nil {
		return err
	}
	return c.validateAliases()
}

// ValidateWithDSN checks both file and DSN fields.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}

// AliasNames returns the configured alias keys in sorted order.
func (c *Config) AliasNames() []string {
	names := make([]string, 0, len(c.Aliases))
	for name := range c.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
