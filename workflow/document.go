package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JaimeStill/docket/pkg/formatting"
)

// Document is a source PDF addressed by the slug of its file stem.
type Document struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// NewDocument derives a Document from a source path.
func NewDocument(path string) Document {
	name := filepath.Base(path)
	return Document{
		Slug: formatting.Slugify(Stem(name)),
		Name: name,
		Path: path,
	}
}

// Stem returns the file name without directory or extension.
func Stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Resolve turns a CLI argument into a Document. Arguments that name an
// existing file are used as-is; otherwise the argument is treated as a file
// name inside dir, with ".pdf" appended when missing. The result must not
// share its slug with a different PDF in dir.
func Resolve(dir, arg string) (Document, error) {
	if arg == "" {
		return Document{}, fmt.Errorf("%w: empty document argument", ErrSourceNotFound)
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		doc := NewDocument(arg)
		if err := unique(dir, doc); err != nil {
			return Document{}, err
		}
		return doc, nil
	}

	name := filepath.Base(arg)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Document{}, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}

	doc := NewDocument(path)
	if err := unique(dir, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Discover returns the PDFs directly inside dir sorted by file name.
// Artifacts are keyed by slug, so two files whose names reduce to the same
// slug are rejected with ErrDuplicateSlug.
func Discover(dir string) ([]Document, error) {
	docs, err := scan(dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]Document, len(docs))
	for _, d := range docs {
		if prev, ok := seen[d.Slug]; ok {
			return nil, duplicate(prev, d)
		}
		seen[d.Slug] = d
	}

	return docs, nil
}

func scan(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	var docs []Document
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		docs = append(docs, NewDocument(filepath.Join(dir, e.Name())))
	}

	slices.SortFunc(docs, func(a, b Document) int {
		return strings.Compare(a.Name, b.Name)
	})

	return docs, nil
}

// unique checks doc against the other PDFs in dir. A missing dir has
// nothing to collide with.
func unique(dir string, doc Document) error {
	docs, err := scan(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	target, err := os.Stat(doc.Path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, doc.Path)
	}

	for _, d := range docs {
		if d.Slug != doc.Slug {
			continue
		}
		if info, err := os.Stat(d.Path); err == nil && os.SameFile(info, target) {
			continue
		}
		return duplicate(d, doc)
	}
	return nil
}

func duplicate(a, b Document) error {
	return fmt.Errorf("%w: %q and %q both map to %s", ErrDuplicateSlug, a.Name, b.Name, a.Slug)
}
