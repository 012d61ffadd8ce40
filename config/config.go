// Package config defines the structures to configure the touch controllers of a machine.
package config

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/touchsense/resource"
)

// A Config describes the components of a machine.
type Config struct {
	Components []resource.Config `json:"components,omitempty"`

	ConfigFilePath string `json:"-"`
}

// Ensure ensures all parts of the config are valid.
func (c *Config) Ensure() error {
	seen := make(map[resource.Name]struct{}, len(c.Components))
	for idx := 0; idx < len(c.Components); idx++ {
		conf := &c.Components[idx]
		if _, err := conf.Validate(fmt.Sprintf("%s.%d", "components", idx)); err != nil {
			return err
		}
		name := conf.ResourceName()
		if _, ok := seen[name]; ok {
			return errors.Errorf("component name %q is not unique", conf.Name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// FindComponent finds a particular component by name.
func (c Config) FindComponent(name string) *resource.Config {
	for _, cmp := range c.Components {
		if cmp.Name == name {
			return &cmp
		}
	}
	return nil
}
