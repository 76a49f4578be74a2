package main

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/convert"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/vdom"
)

// treeNode is one element of a YAML tree file:
//
//	tag: Frame
//	key: panel
//	props:
//	  Name: Panel
//	  Size: {udim2: [1, 0, 0, 40]}
//	  BackgroundColor3: {color: "#202020"}
//	children:
//	  - tag: TextLabel
//	    props: {Text: hello}
//
// A node with wrap binds an existing child of its parent by name; a node
// with fragment: true groups its children without a native object.
type treeNode struct {
	Tag      string         `yaml:"tag,omitempty"`
	Key      string         `yaml:"key,omitempty"`
	Wrap     string         `yaml:"wrap,omitempty"`
	Fragment bool           `yaml:"fragment,omitempty"`
	Props    map[string]any `yaml:"props,omitempty"`
	Children []treeNode     `yaml:"children,omitempty"`
}

// loadTree reads and builds the element tree in path.
func loadTree(fs afero.Fs, path string) (*vdom.Element, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.New(errors.CodeTreeInvalid).Wrap(pkgerrors.Wrapf(err, "cannot read %s", path))
	}
	return parseTree(data, path)
}

func parseTree(data []byte, name string) (*vdom.Element, error) {
	var root treeNode
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.New(errors.CodeTreeInvalid).Wrap(pkgerrors.Wrapf(err, "cannot parse %s", name))
	}
	return root.element("root")
}

func (n treeNode) element(path string) (*vdom.Element, error) {
	props := make(vdom.Props, len(n.Props))
	for k, v := range n.Props {
		pv, err := propValue(v)
		if err != nil {
			return nil, errors.New(errors.CodeTreeInvalid).WithDetailf("%s.props.%s: %v", path, k, err)
		}
		props[k] = pv
	}

	children := make([]any, 0, len(n.Children))
	for i, c := range n.Children {
		el, err := c.element(fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		children = append(children, el)
	}

	var el *vdom.Element
	switch {
	case n.Wrap != "":
		el = vdom.Wrap(n.Wrap, props, children...)
	case n.Fragment:
		el = vdom.Fragment(children...)
	case strings.TrimSpace(n.Tag) == "":
		return nil, errors.New(errors.CodeTreeInvalid).WithDetailf("%s: missing tag", path)
	default:
		el = vdom.El(n.Tag, props, children...)
	}
	if n.Key != "" {
		el = el.WithKey(n.Key)
	}
	return el, nil
}

// propValue decodes tagged scene values. Everything else is used as is.
func propValue(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v, nil
	}
	for kind, raw := range m {
		switch kind {
		case "udim2":
			n, err := numbers(raw, 4)
			if err != nil {
				return nil, err
			}
			return scene.UDim2{X: scene.UDim{Scale: n[0], Offset: n[1]}, Y: scene.UDim{Scale: n[2], Offset: n[3]}}, nil
		case "udim":
			n, err := numbers(raw, 2)
			if err != nil {
				return nil, err
			}
			return scene.UDim{Scale: n[0], Offset: n[1]}, nil
		case "vector2":
			n, err := numbers(raw, 2)
			if err != nil {
				return nil, err
			}
			return scene.Vector2{X: n[0], Y: n[1]}, nil
		case "color":
			return color(raw)
		case "enum":
			s, ok := raw.(string)
			typ, name, found := strings.Cut(s, ".")
			if !ok || !found {
				return nil, fmt.Errorf("enum wants Type.Name, got %v", raw)
			}
			return scene.Enum{Type: typ, Name: name}, nil
		}
	}
	return v, nil
}

func color(raw any) (scene.Color3, error) {
	if s, ok := raw.(string); ok {
		return convert.ParseColor(s)
	}
	n, err := numbers(raw, 3)
	if err != nil {
		return scene.Color3{}, err
	}
	for _, c := range n {
		if c < 0 || c > 255 {
			return scene.Color3{}, fmt.Errorf("color component %v out of range 0-255", c)
		}
	}
	return scene.Color3FromRGB(uint8(n[0]), uint8(n[1]), uint8(n[2])), nil
}

func numbers(raw any, n int) ([]float64, error) {
	list, ok := raw.([]any)
	if !ok || len(list) != n {
		return nil, fmt.Errorf("want a list of %d numbers, got %v", n, raw)
	}
	out := make([]float64, n)
	for i, x := range list {
		switch v := x.(type) {
		case int:
			out[i] = float64(v)
		case float64:
			out[i] = v
		default:
			return nil, fmt.Errorf("want a number, got %T", x)
		}
	}
	return out, nil
}
