package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DeBrosOfficial/branchnode/pkg/errors"
)

// DecodeStrict decodes YAML from a reader and rejects any unknown fields.
// This ensures the YAML only contains recognized configuration keys.
func DecodeStrict(r io.Reader, out interface{}) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadFile reads a YAML file over the defaults and validates the result.
// All validation problems are reported together.
func LoadFile(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewConfigError(path, "cannot open config file", err)
	}
	defer f.Close()

	if err := DecodeStrict(f, cfg); err != nil {
		return nil, errors.NewConfigError(path, "cannot decode config file", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.NewConfigError(path, "invalid config file", Join(errs))
	}
	return cfg, nil
}
