// Package content reads documentation pages from the content tree,
// laid out as <root>/<locale>/**/*.{md,mdx}.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quantumnous/docsite/internal/models"
)

// ErrPageNotFound is returned when no page matches the requested slug.
var ErrPageNotFound = errors.New("page not found")

var pageExtensions = []string{".mdx", ".md"}

// FileSource is a page source backed by the local content directory.
type FileSource struct {
	root string
}

func NewFileSource(root string) *FileSource {
	return &FileSource{root: root}
}

func (s *FileSource) Root() string {
	return s.root
}

// Pages implements sitemap.PageSource. A missing locale directory yields no pages.
func (s *FileSource) Pages(ctx context.Context, locale string) ([]models.Page, error) {
	files, err := s.files(locale)
	if err != nil {
		return nil, err
	}

	pages := make([]models.Page, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, _, err := s.readPage(f.path, f.slugs)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Raw returns the Markdown body of a page without its front matter.
func (s *FileSource) Raw(ctx context.Context, locale string, slugs []string) ([]byte, models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.Page{}, err
	}
	for _, seg := range slugs {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return nil, models.Page{}, ErrPageNotFound
		}
	}

	base := filepath.Join(append([]string{s.root, locale}, slugs...)...)
	candidates := make([]string, 0, 2*len(pageExtensions))
	// base+ext with no slugs would name a file beside the locale directory.
	if len(slugs) > 0 {
		for _, ext := range pageExtensions {
			candidates = append(candidates, base+ext)
		}
	}
	for _, ext := range pageExtensions {
		candidates = append(candidates, filepath.Join(base, "index"+ext))
	}

	for _, p := range candidates {
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			continue
		}
		page, body, err := s.readPage(p, slugs)
		if err != nil {
			return nil, models.Page{}, err
		}
		return body, page, nil
	}
	return nil, models.Page{}, fmt.Errorf("%s/%s: %w", locale, strings.Join(slugs, "/"), ErrPageNotFound)
}

type pageFile struct {
	path  string
	slugs []string
	key   string
}

func (s *FileSource) files(locale string) ([]pageFile, error) {
	dir := filepath.Join(s.root, locale)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []pageFile
	seen := make(map[string]bool)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		slugs, ok := SlugsFromPath(filepath.ToSlash(rel))
		if !ok {
			return nil
		}
		key := strings.Join(slugs, "/")
		// guide.mdx and guide/index.mdx resolve to the same page; first one wins.
		if seen[key] {
			return nil
		}
		seen[key] = true
		files = append(files, pageFile{path: p, slugs: slugs, key: key})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	sort.SliceStable(files, func(i, j int) bool { return files[i].key < files[j].key })
	return files, nil
}

func (s *FileSource) readPage(p string, slugs []string) (models.Page, []byte, error) {
	doc, err := os.ReadFile(p)
	if err != nil {
		return models.Page{}, nil, err
	}
	fm, body, err := ParseFrontMatter(doc)
	if err != nil {
		return models.Page{}, nil, fmt.Errorf("failed to parse front matter of %s: %w", p, err)
	}

	title := fm.Title
	if title == "" {
		title = firstHeading(body)
	}

	page := models.Page{
		Slugs: slugs,
		Data: models.PageData{
			Title:        title,
			Description:  fm.Description,
			LastModified: fm.LastModified,
		},
	}
	return page, body, nil
}

// SlugsFromPath turns a slash separated path relative to the locale directory
// into slug segments. Non page files report false.
func SlugsFromPath(rel string) ([]string, bool) {
	ext := path.Ext(rel)
	known := false
	for _, e := range pageExtensions {
		if ext == e {
			known = true
			break
		}
	}
	if !known {
		return nil, false
	}

	trimmed := strings.TrimSuffix(rel, ext)
	segs := strings.Split(trimmed, "/")
	if segs[len(segs)-1] == "index" {
		segs = segs[:len(segs)-1]
	}
	if len(segs) == 0 {
		return []string{}, true
	}
	return segs, true
}
