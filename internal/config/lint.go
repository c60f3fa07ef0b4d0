package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lint strictly decodes every YAML file reachable from path and reports
// unknown or mistyped keys as warnings. Non-YAML files are skipped.
func Lint(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	files, err := resolveConfigIncludes(path)
	if err != nil {
		return nil, err
	}
	var warnings []string
	for _, file := range files {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".yaml", ".yml":
		default:
			continue
		}
		found, err := lintYAML(file)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, found...)
	}
	return warnings, nil
}

func lintYAML(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	err = dec.Decode(&cfg)
	if err == nil || errors.Is(err, io.EOF) {
		return nil, nil
	}
	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return nil, fmt.Errorf("parse config failed (%s): %w", path, err)
	}
	base := filepath.Base(path)
	out := make([]string, 0, len(typeErr.Errors))
	for _, msg := range typeErr.Errors {
		out = append(out, base+": "+msg)
	}
	return out, nil
}
