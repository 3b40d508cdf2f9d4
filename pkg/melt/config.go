/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Melting configuration. Holds the extraction policy knobs (depth bound, key
naming, forced-scalar fields, plan sample size) with documented defaults and validation.
*/

package melt

import (
	"strings"
)

// Config controls how values are melted into entities.
// A Config is a plain value; melters keep their own copy.
type Config struct {
	// MaxDepth bounds promoted hops below the root. 0 keeps every root field inline.
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth" json:"max_depth"`

	// FKPrefix is prepended to injected foreign key names
	FKPrefix string `mapstructure:"fk_prefix" yaml:"fk_prefix" json:"fk_prefix"`

	// IDSuffix ends every injected foreign key name
	IDSuffix string `mapstructure:"id_suffix" yaml:"id_suffix" json:"id_suffix"`

	// Separator joins entity type segments and foreign key parts
	Separator string `mapstructure:"separator" yaml:"separator" json:"separator"`

	// IncludeParentIDs injects the parent's identifier into promoted children
	IncludeParentIDs bool `mapstructure:"include_parent_ids" yaml:"include_parent_ids" json:"include_parent_ids"`

	// ScalarFields are field names that always stay inline
	ScalarFields []string `mapstructure:"scalar_fields" yaml:"scalar_fields,omitempty" json:"scalar_fields,omitempty"`

	// SampleSize is the number of records the plan builder samples
	SampleSize int `mapstructure:"sample_size" yaml:"sample_size" json:"sample_size"`
}

// DefaultConfig returns the default melting configuration
func DefaultConfig() Config {
	return Config{
		MaxDepth:         10,
		FKPrefix:         "",
		IDSuffix:         "_id",
		Separator:        "_",
		IncludeParentIDs: true,
		ScalarFields:     nil,
		SampleSize:       100,
	}
}

// Validate checks the configuration and returns a *ConfigError on the first problem
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return &ConfigError{Field: "max_depth", Reason: "must not be negative"}
	}
	if c.SampleSize < 1 {
		return &ConfigError{Field: "sample_size", Reason: "must be positive"}
	}
	if c.Separator == "" {
		return &ConfigError{Field: "separator", Reason: "must not be empty"}
	}
	if c.IDSuffix == "" {
		return &ConfigError{Field: "id_suffix", Reason: "must not be empty"}
	}
	for _, name := range c.ScalarFields {
		if strings.TrimSpace(name) == "" {
			return &ConfigError{Field: "scalar_fields", Reason: "field names must not be empty"}
		}
	}
	return nil
}

// WithScalarFields returns a copy with the given forced-scalar fields, deduplicated
func (c Config) WithScalarFields(fields ...string) Config {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	c.ScalarFields = out
	return c
}

// clone detaches the slice so callers cannot mutate a melter's policy
func (c Config) clone() Config {
	if c.ScalarFields != nil {
		c.ScalarFields = append([]string(nil), c.ScalarFields...)
	}
	return c
}

// EntityType derives the entity type name for a path
func (c Config) EntityType(p Path) string {
	if len(p) == 0 {
		return RootType
	}
	return RootType + c.Separator + strings.Join(p, c.Separator)
}

// ForeignKeyName derives the injected key for a child reached through field.
// The separator is not repeated when IDSuffix already starts with it.
func (c Config) ForeignKeyName(field string) string {
	if strings.HasPrefix(c.IDSuffix, c.Separator) {
		return c.FKPrefix + field + c.IDSuffix
	}
	return c.FKPrefix + field + c.Separator + c.IDSuffix
}
