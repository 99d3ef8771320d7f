package build

import (
	"errors"
	"fmt"
	"strings"
)

// Axis is a named list of values a matrix job is run for.
type Axis struct {
	Name   string   `yaml:"name" json:"name"`
	Values []string `yaml:"values" json:"values"`
}

// AxisValue is a single axis name and the value it has in a combination.
type AxisValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Combination is one value per axis, in the order the axes were declared.
type Combination []AxisValue

// String renders the combination as "axis1=value1,axis2=value2". This is used
// as the last segment of the matrix child's job name.
func (c Combination) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = v.Name + "=" + v.Value
	}
	return strings.Join(parts, ",")
}

// Get returns the value of the named axis.
func (c Combination) Get(name string) (string, bool) {
	for _, v := range c {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Combinations returns every combination of the axes' values. The first axis
// varies slowest.
func Combinations(axes []Axis) ([]Combination, error) {
	if len(axes) == 0 {
		return nil, errors.New("no axes")
	}
	seen := map[string]bool{}
	for _, axis := range axes {
		if axis.Name == "" {
			return nil, errors.New("axis without name")
		}
		if seen[axis.Name] {
			return nil, fmt.Errorf("duplicate axis: %q", axis.Name)
		}
		seen[axis.Name] = true
		if len(axis.Values) == 0 {
			return nil, fmt.Errorf("axis %q has no values", axis.Name)
		}
	}
	combinations := []Combination{{}}
	for _, axis := range axes {
		next := make([]Combination, 0, len(combinations)*len(axis.Values))
		for _, prefix := range combinations {
			for _, value := range axis.Values {
				c := make(Combination, len(prefix), len(prefix)+1)
				copy(c, prefix)
				next = append(next, append(c, AxisValue{Name: axis.Name, Value: value}))
			}
		}
		combinations = next
	}
	return combinations, nil
}

// ChildJob returns the job name of a matrix child for the given combination.
func ChildJob(parentJob string, c Combination) string {
	return parentJob + "/" + c.String()
}
