// Package config loads the bot configuration from YAML or TOML files with
// include support, fills defaults and applies environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads path and its includes. An empty path yields the defaults with
// environment overrides applied.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if strings.TrimSpace(path) != "" {
		files, err := resolveConfigIncludes(path)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if err := mergeConfigFile(v, file); err != nil {
				return nil, fmt.Errorf("reading config file failed (%s): %w", file, err)
			}
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	setKeys := make(keySet)
	collectSettingsKeys(v.AllSettings(), setKeys)
	cfg.applyEnv(setKeys, lookupEnv)
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	part := viper.New()
	part.SetConfigFile(path)
	if err := part.ReadInConfig(); err != nil {
		return err
	}
	return v.MergeConfigMap(part.AllSettings())
}

// includeResolver walks include lists depth first. Files are returned in
// merge order: includes before the file that names them, each file once.
type includeResolver struct {
	visited  map[string]bool
	visiting map[string]bool
	order    []string
}

func resolveConfigIncludes(path string) ([]string, error) {
	abs, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	r := &includeResolver{visited: map[string]bool{}, visiting: map[string]bool{}}
	if err := r.walk(abs); err != nil {
		return nil, err
	}
	return r.order, nil
}

func (r *includeResolver) walk(path string) error {
	path = filepath.Clean(path)
	switch {
	case r.visiting[path]:
		return fmt.Errorf("include cycle detected: %s", path)
	case r.visited[path]:
		return nil
	}
	r.visiting[path] = true
	includes, err := readIncludes(path)
	if err != nil {
		return fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		if err := r.walk(inc); err != nil {
			return err
		}
	}
	delete(r.visiting, path)
	r.visited[path] = true
	r.order = append(r.order, path)
	return nil
}

// readIncludes returns the include entries of one file. A single string
// is accepted as a one element list.
func readIncludes(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var raw []string
	switch val := v.Get("include").(type) {
	case nil:
		return nil, nil
	case string:
		raw = []string{val}
	case []string:
		raw = val
	case []any:
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("include entries must be strings, got %T", item)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("include must be a string or a list of strings")
	}
	out := raw[:0]
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

// collectSettingsKeys marks every leaf path of the merged settings.
// Defaults skip marked paths, including explicit zeros.
func collectSettingsKeys(settings map[string]any, dest keySet) {
	for k, v := range settings {
		markKeys(strings.ToLower(strings.TrimSpace(k)), v, dest)
	}
}

func markKeys(path string, node any, dest keySet) {
	if path == "" {
		return
	}
	child, ok := node.(map[string]any)
	if !ok {
		dest.mark(path)
		return
	}
	if len(child) == 0 {
		dest.mark(path)
	}
	for k, v := range child {
		markKeys(path+"."+strings.ToLower(strings.TrimSpace(k)), v, dest)
	}
}
