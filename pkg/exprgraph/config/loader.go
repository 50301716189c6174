package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeFunc parses raw settings bytes into a Config.
type decodeFunc func([]byte) (Config, error)

// FromFile reads engine settings from a file. The format follows the
// extension: .yaml and .yml parse as YAML, .json as JSON.
func FromFile(path string) (Config, error) {
	decode, err := decoderFor(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	return decode(data)
}

// EngineFromFile loads a settings file and extracts the engine section in
// one step.
func EngineFromFile(path string) (Engine, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Engine{}, err
	}
	return cfg.Engine(), nil
}

// decoderFor picks the decoder matching a file's extension.
func decoderFor(path string) (decodeFunc, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML, nil
	case ".json":
		return FromJSON, nil
	default:
		return nil, fmt.Errorf("settings file %s: unrecognized extension %q", path, ext)
	}
}

// FromYAML parses YAML settings.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml settings: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON settings.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json settings: %w", err)
	}
	return New(m), nil
}
