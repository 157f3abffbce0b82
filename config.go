package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/markis/jawab/internal/config"
)

// printConfig writes the effective configuration as YAML, in the same shape
// the config file accepts.
func printConfig(w io.Writer, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
