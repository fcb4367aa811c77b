package routesrc

import (
	"bytes"
	"encoding/json"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/router"
)

// Format is a route file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file name or object key.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New("R211").WithSource(name)
}

// document is the wrapped file form.
type document struct {
	Routes []*router.RouteConfig `json:"routes" yaml:"routes"`
}

// Parse decodes a route tree. The result is not validated; hand it to
// Router.Configure for that.
func Parse(data []byte, format Format) ([]*router.RouteConfig, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var (
		routes []*router.RouteConfig
		err    error
	)
	switch format {
	case FormatJSON:
		routes, err = parseJSON(trimmed)
	case FormatYAML:
		routes, err = parseYAML(trimmed)
	default:
		return nil, errors.New("R211").WithDetailf("format %q", format)
	}
	if err != nil {
		return nil, errors.New("R210").WithDetailf("decode %s", format).Wrap(err)
	}
	return routes, nil
}

func parseJSON(data []byte) ([]*router.RouteConfig, error) {
	if data[0] == '[' {
		var routes []*router.RouteConfig
		return routes, strictJSON(data, &routes)
	}
	var doc document
	return doc.Routes, strictJSON(data, &doc)
}

func strictJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseYAML(data []byte) ([]*router.RouteConfig, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var routes []*router.RouteConfig
		return routes, strictYAML(data, &routes)
	}
	var doc document
	return doc.Routes, strictYAML(data, &doc)
}

func strictYAML(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Encode writes routes in the given format, as a wrapped document.
func Encode(w io.Writer, routes []*router.RouteConfig, format Format) error {
	doc := document{Routes: routes}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return errors.New("R211").WithDetailf("format %q", format)
}
