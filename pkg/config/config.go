// Package config loads YAML configuration files with environment variable
// expansion and optional validation.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configurations that can check themselves.
type Validator interface {
	Validate() error
}

// Load reads filename into target. Fields missing from the file keep the
// values target already holds.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", filename, err)
	}

	err = Decode(data, target)
	if err != nil {
		return fmt.Errorf("config file %s: %w", filename, err)
	}

	return nil
}

// Decode expands ${VAR} references in data, unmarshals it into target and
// validates the result.
func Decode[T any](data []byte, target *T) error {
	expanded := os.ExpandEnv(string(data))

	err := yaml.Unmarshal([]byte(expanded), target)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if validator, ok := any(target).(Validator); ok {
		err := validator.Validate()
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

// LoadOptional loads filename when it exists. A missing file only runs
// validation on the defaults already in target.
func LoadOptional[T any](filename string, target *T) error {
	_, err := os.Stat(filename)
	if errors.Is(err, os.ErrNotExist) {
		if validator, ok := any(target).(Validator); ok {
			err := validator.Validate()
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
		}

		return nil
	}

	return Load(filename, target)
}

// MustLoad loads configuration and panics on failure.
func MustLoad[T any](filename string, target *T) {
	err := Load(filename, target)
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
}
