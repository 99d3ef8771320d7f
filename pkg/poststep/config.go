package poststep

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CurrentConfigVersion is the version of the Config layout written by this
// version of the program.
const CurrentConfigVersion = 1

// Config is the configuration of a post-build step, as stored in job
// definitions.
type Config struct {
	// Version is the layout version of the stored config. Older layouts are
	// upgraded when decoded.
	Version int `yaml:"version,omitempty"`
	// Script is the script source.
	Script string `yaml:"script"`
	// Behavior decides what happens to the build when the script fails.
	Behavior Behavior `yaml:"behavior"`
	// RunForMatrixParent runs the step once more on the parent build of a
	// matrix job, after all its child builds have finished.
	RunForMatrixParent bool `yaml:"runForMatrixParent"`
}

// UnmarshalYAML implements yaml.Unmarshaler
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	c.upgrade()
	return nil
}

// upgrade migrates configs decoded from older layouts. Unversioned configs
// share the layout of version 1.
func (c *Config) upgrade() {
	if c.Version == 0 {
		c.Version = CurrentConfigVersion
	}
}

// ParseConfig decodes a Config from YAML.
func ParseConfig(r io.Reader) (Config, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		if err == io.EOF {
			c.upgrade()
			return c, nil
		}
		return Config{}, err
	}
	return c, nil
}

// ParseConfigFile decodes a Config from a YAML file.
func ParseConfigFile(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()
	c, err := ParseConfig(file)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// ScriptAttrs returns the attributes the script can read through its
// "self" binding.
func (c Config) ScriptAttrs() map[string]any {
	return map[string]any{
		"script":             c.Script,
		"behavior":           c.Behavior.String(),
		"runForMatrixParent": c.RunForMatrixParent,
	}
}
