// Package openapi turns remote OpenAPI schemas into one MDX page per operation.
package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Methods in the order OpenAPI lists them on a path item.
var Methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

type Document struct {
	OpenAPI string              `json:"openapi"`
	Info    Info                `json:"info"`
	Tags    []Tag               `json:"tags,omitempty"`
	Paths   map[string]PathItem `json:"paths"`
}

type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PathItem maps lower-case HTTP methods to operations.
type PathItem map[string]*Operation

func (p *PathItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	item := make(PathItem)
	for _, method := range Methods {
		msg, ok := raw[method]
		if !ok {
			continue
		}
		var op Operation
		if err := json.Unmarshal(msg, &op); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		item[method] = &op
	}
	*p = item
	return nil
}

type Operation struct {
	OperationID string   `json:"operationId,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
}

// OperationRef is an operation together with where it lives in the document.
type OperationRef struct {
	Path   string
	Method string
	*Operation
}

// Parse decodes a JSON OpenAPI document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	if doc.OpenAPI == "" {
		return nil, fmt.Errorf("invalid OpenAPI document: missing openapi version")
	}
	return &doc, nil
}

// Operations lists every operation sorted by path, then by method order.
func (d *Document) Operations() []OperationRef {
	paths := make([]string, 0, len(d.Paths))
	for p := range d.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var ops []OperationRef
	for _, p := range paths {
		item := d.Paths[p]
		for _, m := range Methods {
			if op, ok := item[m]; ok {
				ops = append(ops, OperationRef{Path: p, Method: m, Operation: op})
			}
		}
	}
	return ops
}

// Title is the page title for the operation.
func (o OperationRef) Title() string {
	switch {
	case strings.TrimSpace(o.Summary) != "":
		return strings.TrimSpace(o.Summary)
	case o.OperationID != "":
		return o.OperationID
	default:
		return strings.ToUpper(o.Method) + " " + o.Path
	}
}
