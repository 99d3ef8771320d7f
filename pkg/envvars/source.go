package envvars

import "sort"

// Source is a source of environment variables.
type Source interface {
	// Lookup tries to look up a value based on name and returns that value as
	// well as true on success, or false if the variable was not found.
	Lookup(name string) (Var, bool)

	// ListVars returns all variables that this Source provides.
	ListVars() []Var
}

// Var is a single environment variable, and the name of the source it was
// found in.
type Var struct {
	Key    string
	Value  string
	Source string
}

// String implements the fmt.Stringer interface.
func (v Var) String() string {
	return v.Key + "=" + v.Value
}

// SourceSlice is a slice of sources that act as a source itself by returning
// the first successful lookup.
type SourceSlice []Source

// Lookup tries to look up a value based on name and returns that value as
// well as true on success, or false if the variable was not found.
func (s SourceSlice) Lookup(name string) (Var, bool) {
	for _, inner := range s {
		val, ok := inner.Lookup(name)
		if ok {
			return val, true
		}
	}
	return Var{}, false
}

// ListVars returns the variables of all inner sources, including variables
// shadowed by earlier sources.
func (s SourceSlice) ListVars() []Var {
	var vars []Var
	for _, inner := range s {
		vars = append(vars, inner.ListVars()...)
	}
	return vars
}

// ensure it conforms to interface
var _ Source = SourceSlice{}

// SourceMap is a Source of static values.
type SourceMap struct {
	Name string
	Vars map[string]string
}

// Lookup tries to look up a value based on name and returns that value as
// well as true on success, or false if the variable was not found.
func (s SourceMap) Lookup(name string) (Var, bool) {
	val, ok := s.Vars[name]
	if !ok {
		return Var{}, false
	}
	return Var{Key: name, Value: val, Source: s.Name}, true
}

// ListVars returns all variables, sorted by key.
func (s SourceMap) ListVars() []Var {
	vars := make([]Var, 0, len(s.Vars))
	for k, v := range s.Vars {
		vars = append(vars, Var{Key: k, Value: v, Source: s.Name})
	}
	sort.Slice(vars, func(i, j int) bool {
		return vars[i].Key < vars[j].Key
	})
	return vars
}

// Flatten returns all variables of the source as a map. When multiple inner
// sources define the same key, the value from Lookup wins.
func Flatten(s Source) map[string]string {
	env := map[string]string{}
	for _, v := range s.ListVars() {
		if _, ok := env[v.Key]; ok {
			continue
		}
		if winner, ok := s.Lookup(v.Key); ok {
			env[v.Key] = winner.Value
		}
	}
	return env
}
