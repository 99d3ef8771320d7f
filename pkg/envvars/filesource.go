package envvars

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAMLFile reads a YAML file of string keys and scalar values, such as:
//
//	DEPLOY_ENV: staging
//	RETRIES: 3
//
// Non-string scalar values are kept in their YAML textual form.
func LoadYAMLFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	vars := map[string]string{}
	if len(doc.Content) == 0 {
		return SourceMap{Name: path, Vars: vars}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse env file %s: %d:%d: expected a map of variables",
			path, root.Line, root.Column)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("parse env file %s: %d:%d: variable %q must be a scalar value",
				path, value.Line, value.Column, key.Value)
		}
		vars[key.Value] = value.Value
	}
	return SourceMap{Name: path, Vars: vars}, nil
}
