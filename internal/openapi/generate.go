package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const generatedComment = "{/* This file was generated by docsite. Do not edit this file directly. Any changes should be made by running the generation command again. */}"

const untaggedFolder = "untagged"

type GenerateOptions struct {
	// Output directory, e.g. content/docs/zh/api/management.
	Output string
	// DocumentRef is the schema reference written into each APIPage.
	DocumentRef         string
	GroupByTag          bool
	IncludeDescription  bool
	AddGeneratedComment bool
	// Clean removes Output before writing.
	Clean  bool
	Naming NamingFunc
}

type pageFrontMatter struct {
	Title       string      `yaml:"title"`
	Description string      `yaml:"description,omitempty"`
	Full        bool        `yaml:"full"`
	OpenAPI     openAPIMeta `yaml:"_openapi"`
}

type openAPIMeta struct {
	Method     string `yaml:"method"`
	Route      string `yaml:"route"`
	Deprecated bool   `yaml:"deprecated,omitempty"`
}

type apiPageOperation struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

// Generate writes one .mdx file per operation and returns the written paths.
func Generate(doc *Document, opts GenerateOptions) ([]string, error) {
	if opts.Output == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	naming := opts.Naming
	if naming == nil {
		naming = NameByOperationID
	}

	if opts.Clean {
		if err := os.RemoveAll(opts.Output); err != nil {
			return nil, fmt.Errorf("failed to clean %s: %w", opts.Output, err)
		}
	}

	var written []string
	taken := make(map[string]bool)
	for _, op := range doc.Operations() {
		folder := ""
		if opts.GroupByTag {
			folder = untaggedFolder
			if len(op.Tags) > 0 {
				if slug := Slugify(op.Tags[0]); slug != "" {
					folder = slug
				}
			}
		}

		// A suffixed name may collide with a later natural name, so keep
		// counting until the path is free.
		name := naming(op)
		rel := filepath.Join(folder, name)
		for n := 2; taken[rel]; n++ {
			rel = filepath.Join(folder, name+"-"+strconv.Itoa(n))
		}
		taken[rel] = true

		data, err := renderOperation(op, opts)
		if err != nil {
			return written, fmt.Errorf("failed to render %s %s: %w", op.Method, op.Path, err)
		}

		target := filepath.Join(opts.Output, rel+".mdx")
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return written, err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", target, err)
		}
		written = append(written, target)
	}

	return written, nil
}

func renderOperation(op OperationRef, opts GenerateOptions) ([]byte, error) {
	fm := pageFrontMatter{
		Title: op.Title(),
		Full:  true,
		OpenAPI: openAPIMeta{
			Method:     op.Method,
			Route:      op.Path,
			Deprecated: op.Deprecated,
		},
	}
	if opts.IncludeDescription {
		fm.Description = Summary(op.Description)
	}

	var fmBuf bytes.Buffer
	enc := yaml.NewEncoder(&fmBuf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	operations, err := json.Marshal([]apiPageOperation{{Path: op.Path, Method: op.Method}})
	if err != nil {
		return nil, err
	}
	ref, err := json.Marshal(opts.DocumentRef)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fmBuf.Bytes())
	buf.WriteString("---\n\n")
	if opts.AddGeneratedComment {
		buf.WriteString(generatedComment)
		buf.WriteString("\n\n")
	}
	if opts.IncludeDescription {
		if desc := CleanDescription(op.Description); desc != "" {
			buf.WriteString(desc)
			buf.WriteString("\n\n")
		}
	}
	fmt.Fprintf(&buf, "<APIPage document={%s} operations={%s} webhooks={[]} hasHead={false} />\n", ref, operations)
	return buf.Bytes(), nil
}
