// Package textbook implements a document made of plain text files, one file
// per section, and a paginator that lays it out.
package textbook

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/skyline93/pagemap/internal/fs"
	"github.com/skyline93/pagemap/internal/page"
)

// Ext is the file extension of section files.
const Ext = ".txt"

// Book is a directory of text files. The files are the sections of the book,
// in lexical order of their names.
type Book struct {
	dir      string
	sections []string
	params   page.Params
}

// Open reads the section list of the book in dir. Files without the Ext
// extension, hidden files and subdirectories are ignored.
func Open(dir string, params page.Params) (*Book, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	entries, err := fs.ReadDir(abs)
	if err != nil {
		return nil, errors.Wrap(err, "ReadDir")
	}

	b := &Book{dir: abs, params: params}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != Ext {
			continue
		}
		b.sections = append(b.sections, filepath.Join(abs, name))
	}

	return b, nil
}

// ID returns the absolute path of the book directory.
func (b *Book) ID() string {
	return b.dir
}

// SectionCount returns the number of section files.
func (b *Book) SectionCount() int {
	return len(b.sections)
}

// FormatParams returns the parameters the book is laid out with.
func (b *Book) FormatParams() page.Params {
	return b.params
}

// WithParams returns a copy of the book that is laid out with params.
func (b *Book) WithParams(params page.Params) *Book {
	nb := *b
	nb.params = params
	return &nb
}

// Section returns the file name of section i.
func (b *Book) Section(i int) (string, error) {
	if i < 0 || i >= len(b.sections) {
		return "", errors.Errorf("section %d out of range [0, %d)", i, len(b.sections))
	}
	return b.sections[i], nil
}
