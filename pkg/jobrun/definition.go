package jobrun

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/iver-wharf/wharf-postbuild/internal/errutil"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/poststep"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"gopkg.in/yaml.v3"
)

// DefinitionFileName is the conventional file name of job definitions.
const DefinitionFileName = ".wharf-postbuild.yml"

// Errors related to parsing job definitions.
var (
	ErrMissingDoc       = errors.New("empty document")
	ErrTooManyDocs      = errors.New("only 1 document is allowed")
	ErrInvalidFieldType = errors.New("invalid field type")
	ErrKeyNotString     = errors.New("map key must be string")
	ErrUnknownField     = errors.New("unknown field")
	ErrMissingRequired  = errors.New("missing required field")
)

// Definition is a job, as read from a job definition file.
type Definition struct {
	// Job is the job name.
	Job string
	// Axes makes the job a matrix job, with one child build per combination
	// of axis values.
	Axes []build.Axis
	// Vars are recorded on every build of the job.
	Vars map[string]string
	// Log is written to the build log before the post-build steps run.
	// Matrix children expand ${axis} references to their axis values.
	Log string
	// Result is the result builds have before the post-build steps run.
	Result result.Result
	// ChildResults overrides Result for matrix children, keyed by their
	// combination, such as "axis1=value1".
	ChildResults map[string]result.Result
	// PostBuild are the post-build steps to run, in order.
	PostBuild []poststep.Config
}

// IsMatrix reports whether the job is a matrix job.
func (d Definition) IsMatrix() bool {
	return len(d.Axes) > 0
}

// ParseDefinitionFile parses a job definition from a YAML file.
func ParseDefinitionFile(path string) (Definition, errutil.Slice) {
	file, err := os.Open(path)
	if err != nil {
		return Definition{}, errutil.Slice{err}
	}
	defer file.Close()
	return ParseDefinition(file)
}

// ParseDefinition parses a job definition from YAML. All errors found are
// returned, sorted by their position.
func ParseDefinition(r io.Reader) (Definition, errutil.Slice) {
	root, err := decodeSingleRootNode(r)
	if err != nil {
		return Definition{}, errutil.Slice{err}
	}
	def, errs := visitDefinitionNode(root)
	errs.SortByPos()
	return def, errs
}

func decodeSingleRootNode(r io.Reader) (*yaml.Node, error) {
	dec := yaml.NewDecoder(r)
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	switch {
	case len(docs) == 0:
		return nil, ErrMissingDoc
	case len(docs) > 1:
		return nil, fmt.Errorf("%w: expected 1, found %d", ErrTooManyDocs, len(docs))
	}
	if len(docs[0].Content) == 0 {
		return nil, ErrMissingDoc
	}
	return docs[0].Content[0], nil
}

func visitDefinitionNode(node *yaml.Node) (def Definition, errs errutil.Slice) {
	def.Result = result.Success
	items, err := mapItems(node)
	if err != nil {
		return def, errutil.Slice{err}
	}
	var hasJob bool
	for _, item := range items {
		switch item.key {
		case "job":
			hasJob = true
			errs.Add(errutil.Scope(visitString(item.value, &def.Job), item.key))
		case "axes":
			var axisErrs errutil.Slice
			def.Axes, axisErrs = visitAxesNode(item.value)
			errs.Add(axisErrs.Scope(item.key)...)
		case "vars":
			var varErrs errutil.Slice
			def.Vars, varErrs = visitStringMapNode(item.value)
			errs.Add(varErrs.Scope(item.key)...)
		case "log":
			errs.Add(errutil.Scope(visitString(item.value, &def.Log), item.key))
		case "result":
			errs.Add(errutil.Scope(visitResult(item.value, &def.Result), item.key))
		case "childResults":
			var resErrs errutil.Slice
			def.ChildResults, resErrs = visitResultMapNode(item.value)
			errs.Add(resErrs.Scope(item.key)...)
		case "postBuild":
			var stepErrs errutil.Slice
			def.PostBuild, stepErrs = visitPostBuildNode(item.value)
			errs.Add(stepErrs.Scope(item.key)...)
		default:
			errs.Add(errutil.NewPos(fmt.Errorf("%w: %q", ErrUnknownField, item.key), item.keyNode))
		}
	}
	if !hasJob {
		errs.Add(errutil.NewPos(fmt.Errorf("%w: job", ErrMissingRequired), node))
	}
	return def, errs
}

func visitAxesNode(node *yaml.Node) ([]build.Axis, errutil.Slice) {
	if err := requireKind(node, yaml.SequenceNode, "sequence"); err != nil {
		return nil, errutil.Slice{err}
	}
	var errs errutil.Slice
	axes := make([]build.Axis, 0, len(node.Content))
	for i, axisNode := range node.Content {
		var axis build.Axis
		if err := axisNode.Decode(&axis); err != nil {
			errs.Add(errutil.Scope(errutil.NewPos(err, axisNode), fmt.Sprint(i)))
			continue
		}
		axes = append(axes, axis)
	}
	if len(errs) == 0 {
		if _, err := build.Combinations(axes); err != nil {
			errs.Add(errutil.NewPos(err, node))
		}
	}
	return axes, errs
}

func visitStringMapNode(node *yaml.Node) (map[string]string, errutil.Slice) {
	items, err := mapItems(node)
	if err != nil {
		return nil, errutil.Slice{err}
	}
	var errs errutil.Slice
	m := make(map[string]string, len(items))
	for _, item := range items {
		var s string
		if err := visitString(item.value, &s); err != nil {
			errs.Add(errutil.Scope(err, item.key))
			continue
		}
		m[item.key] = s
	}
	return m, errs
}

func visitResultMapNode(node *yaml.Node) (map[string]result.Result, errutil.Slice) {
	items, err := mapItems(node)
	if err != nil {
		return nil, errutil.Slice{err}
	}
	var errs errutil.Slice
	m := make(map[string]result.Result, len(items))
	for _, item := range items {
		var r result.Result
		if err := visitResult(item.value, &r); err != nil {
			errs.Add(errutil.Scope(err, item.key))
			continue
		}
		m[item.key] = r
	}
	return m, errs
}

func visitPostBuildNode(node *yaml.Node) ([]poststep.Config, errutil.Slice) {
	if err := requireKind(node, yaml.SequenceNode, "sequence"); err != nil {
		return nil, errutil.Slice{err}
	}
	var errs errutil.Slice
	steps := make([]poststep.Config, 0, len(node.Content))
	for i, stepNode := range node.Content {
		var cfg poststep.Config
		if err := stepNode.Decode(&cfg); err != nil {
			errs.Add(errutil.Scope(errutil.NewPos(err, stepNode), fmt.Sprint(i)))
			continue
		}
		steps = append(steps, cfg)
	}
	return steps, errs
}

type mapItem struct {
	key     string
	keyNode *yaml.Node
	value   *yaml.Node
}

func mapItems(node *yaml.Node) ([]mapItem, error) {
	if err := requireKind(node, yaml.MappingNode, "map"); err != nil {
		return nil, err
	}
	items := make([]mapItem, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode || keyNode.ShortTag() != "!!str" {
			return nil, errutil.NewPos(ErrKeyNotString, keyNode)
		}
		items = append(items, mapItem{key: keyNode.Value, keyNode: keyNode, value: valueNode})
	}
	return items, nil
}

func visitString(node *yaml.Node, target *string) error {
	if node.Kind != yaml.ScalarNode || node.ShortTag() == "!!null" {
		return errutil.NewPos(fmt.Errorf("%w: expected string, found %s", ErrInvalidFieldType, kindName(node)), node)
	}
	*target = node.Value
	return nil
}

func visitResult(node *yaml.Node, target *result.Result) error {
	var s string
	if err := visitString(node, &s); err != nil {
		return err
	}
	r, err := result.Parse(s)
	if err != nil {
		return errutil.NewPos(err, node)
	}
	*target = r
	return nil
}

func requireKind(node *yaml.Node, kind yaml.Kind, name string) error {
	if node.Kind != kind {
		return errutil.NewPos(fmt.Errorf("%w: expected %s, found %s", ErrInvalidFieldType, name, kindName(node)), node)
	}
	return nil
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "map"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return "null"
		}
		return "scalar"
	default:
		return "unknown"
	}
}
