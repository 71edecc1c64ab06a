/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/go-openapi/strfmt"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entitycache"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/storagemodels"
)

// Known backends
const (
	BackendDynamoDB = "ddb"
	BackendSQLite   = "sqlite"
)

// Config describes the stores, bindings and lists of a cache.
type Config struct {
	Stores   []StoreConfig   `yaml:"stores"`
	Bindings []BindingConfig `yaml:"bindings"`
	Lists    []ListConfig    `yaml:"lists"`
}

// StoreConfig describes one entity store.
type StoreConfig struct {
	Name       string        `yaml:"name"`
	PrimaryKey string        `yaml:"primaryKey"`
	KeyFormat  string        `yaml:"keyFormat"`
	Source     *SourceConfig `yaml:"source"`
}

// BindingConfig declares that the sub-entities at Path in Store are
// entities of Target.
type BindingConfig struct {
	Store  string `yaml:"store"`
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
	Mode   string `yaml:"mode"`
}

// ListConfig describes a paginated list, keyed or not, attached to Target.
type ListConfig struct {
	Name   string        `yaml:"name"`
	Target string        `yaml:"target"`
	Mode   string        `yaml:"mode"`
	Keyed  bool          `yaml:"keyed"`
	Source *SourceConfig `yaml:"source"`
}

// SourceConfig locates the backend data of a store or a list.
type SourceConfig struct {
	Backend   string            `yaml:"backend"`
	Table     string            `yaml:"table"`
	Path      string            `yaml:"path,omitempty"`
	IndexMap  map[string]string `yaml:"indexMap,omitempty"`
	IndexName string            `yaml:"indexName,omitempty"`
	Partition string            `yaml:"partition,omitempty"`
	PageSize  int32             `yaml:"pageSize,omitempty"`
	Ascending *bool             `yaml:"ascending,omitempty"`
}

// ListParams returns the listing described by the source.
func (s SourceConfig) ListParams() storagemodels.ListParams {
	return storagemodels.ListParams{
		Partition: s.Partition,
		PageSize:  s.PageSize,
		IndexName: s.IndexName,
		Ascending: s.Ascending,
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Store returns the store configuration with the given name.
func (c *Config) Store(name string) (StoreConfig, bool) {
	for _, s := range c.Stores {
		if s.Name == name {
			return s, true
		}
	}
	return StoreConfig{}, false
}

// Validate applies defaults and reports every problem of the configuration.
// The returned error matches errors.ErrInvalidInput.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, format string, args ...any) {
		errs = append(errs, errors.NewValidationError(field, fmt.Sprintf(format, args...)))
	}

	stores := make(map[string]bool, len(c.Stores))
	for i := range c.Stores {
		s := &c.Stores[i]
		field := fmt.Sprintf("stores[%d]", i)
		switch {
		case s.Name == "":
			invalid(field+".name", "is required")
		case stores[s.Name]:
			invalid(field+".name", "duplicate store %q", s.Name)
		}
		stores[s.Name] = true

		if s.PrimaryKey == "" {
			s.PrimaryKey = storagemodels.DefaultPrimaryKey
		}
		if s.KeyFormat != "" && !strfmt.Default.ContainsName(s.KeyFormat) {
			invalid(field+".keyFormat", "unknown format %q", s.KeyFormat)
		}
		if s.Source != nil {
			validateSource(field+".source", *s.Source, true, invalid)
		}
	}

	for i := range c.Bindings {
		b := &c.Bindings[i]
		field := fmt.Sprintf("bindings[%d]", i)
		if !stores[b.Store] {
			invalid(field+".store", "unknown store %q", b.Store)
		}
		if !stores[b.Target] {
			invalid(field+".target", "unknown store %q", b.Target)
		}
		if _, err := entitycache.ParsePath(b.Path); err != nil {
			invalid(field+".path", "%v", err)
		}
		validateMode(field+".mode", &b.Mode, invalid)
	}

	lists := make(map[string]bool, len(c.Lists))
	for i := range c.Lists {
		l := &c.Lists[i]
		field := fmt.Sprintf("lists[%d]", i)
		switch {
		case l.Name == "":
			invalid(field+".name", "is required")
		case lists[l.Name]:
			invalid(field+".name", "duplicate list %q", l.Name)
		}
		lists[l.Name] = true

		if l.Target != "" && !stores[l.Target] {
			invalid(field+".target", "unknown store %q", l.Target)
		}
		validateMode(field+".mode", &l.Mode, invalid)
		if l.Source == nil {
			invalid(field+".source", "is required")
		} else {
			validateSource(field+".source", *l.Source, false, invalid)
		}
	}

	return stderrors.Join(errs...)
}

func validateMode(field string, mode *string, invalid func(string, string, ...any)) {
	m, err := entitycache.ParseBindingMode(*mode)
	if err != nil {
		invalid(field, "unknown mode %q", *mode)
		return
	}
	*mode = m.String()
}

func validateSource(field string, s SourceConfig, forStore bool, invalid func(string, string, ...any)) {
	switch s.Backend {
	case BackendDynamoDB:
		if s.Table == "" {
			invalid(field+".table", "is required")
		}
		if forStore {
			if _, ok := s.IndexMap["PK"]; !ok {
				invalid(field+".indexMap", "PK template is required")
			}
		}
	case BackendSQLite:
		if s.Table == "" {
			invalid(field+".table", "is required")
		}
	default:
		invalid(field+".backend", "unknown backend %q", s.Backend)
	}
	if s.PageSize < 0 {
		invalid(field+".pageSize", "must not be negative")
	}
}
