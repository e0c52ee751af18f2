package config

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"certguard/internal/duplicate/models"
)

// LoadDetectionConfig reads a YAML rule set, falling back to the default preset
// when path is empty. The result is validated before it is returned.
func LoadDetectionConfig(path string) (models.Config, error) {
	if path == "" {
		return models.DefaultConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDetectionDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return models.Config{}, fmt.Errorf("read rules file %s: %w", path, err)
	}
	return decodeDetection(v)
}

// ParseDetectionConfig decodes a YAML rule set held in memory.
func ParseDetectionConfig(data []byte) (models.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDetectionDefaults(v)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return models.Config{}, fmt.Errorf("parse rules: %w", err)
	}
	return decodeDetection(v)
}

// MarshalDetectionConfig renders cfg in the same YAML shape LoadDetectionConfig reads.
func MarshalDetectionConfig(cfg models.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return buf.Bytes(), nil
}

func setDetectionDefaults(v *viper.Viper) {
	v.SetDefault("enabled", true)
	v.SetDefault("defaultAction", string(models.ActionWarn))
	v.SetDefault("allowOverride", true)
	v.SetDefault("requireAdminApproval", false)
	v.SetDefault("logDuplicates", true)
}

func decodeDetection(v *viper.Viper) (models.Config, error) {
	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return models.Config{}, fmt.Errorf("decode rules: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return models.Config{}, err
	}
	return cfg, nil
}
