package content

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates a document opened a front matter
// block that never closes.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// FrontMatter is the subset of page front matter read by the site.
type FrontMatter struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	LastModified any    `yaml:"lastModified"`
}

// splitFrontMatter separates `---` delimited YAML from the Markdown body.
func splitFrontMatter(doc []byte) (fm []byte, body []byte, err error) {
	nl := []byte("\n")
	if i := bytes.IndexByte(doc, '\n'); i > 0 && doc[i-1] == '\r' {
		nl = []byte("\r\n")
	}

	open := append([]byte("---"), nl...)
	if !bytes.HasPrefix(doc, open) {
		return nil, doc, nil
	}

	rest := doc[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], nil
	}

	closeSeq := append(append([]byte{}, nl...), open...)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// Closing delimiter at end of file without trailing newline.
		tail := append(append([]byte{}, nl...), []byte("---")...)
		if bytes.HasSuffix(rest, tail) {
			return rest[:len(rest)-len(tail)+len(nl)], []byte{}, nil
		}
		return nil, nil, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], nil
}

// ParseFrontMatter splits doc and decodes its YAML front matter.
func ParseFrontMatter(doc []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	raw, body, err := splitFrontMatter(doc)
	if err != nil {
		return fm, nil, err
	}
	if len(raw) == 0 {
		return fm, body, nil
	}
	if err := yaml.Unmarshal(raw, &fm); err != nil {
		return fm, nil, err
	}
	return fm, body, nil
}
