package pagination

import (
	"context"
	"io"

	"github.com/skyline93/pagemap/internal/cache"
	"github.com/skyline93/pagemap/internal/page"
)

// Sink receives the page boundaries found by a Paginator.
type Sink interface {
	// Insert records a page starting at id with the given size. A negative
	// size marks a page that is never displayed. Insert returns false if the
	// record was discarded, either because the retrieval became obsolete or
	// because id belongs to another section. Paginators may stop early once
	// Insert returns false.
	Insert(id page.ID, size int32) bool
}

// Paginator lays out one section of a document and reports its pages.
type Paginator interface {
	// RetrieveSection walks the given section using params and calls
	// sink.Insert for every page boundary, in ascending order. A non-nil
	// error marks the section as failed; records inserted before the error
	// are dropped.
	RetrieveSection(ctx context.Context, section int, params page.Params, sink Sink) error
}

// PaginatorFunc adapts a function to the Paginator interface.
type PaginatorFunc func(ctx context.Context, section int, params page.Params, sink Sink) error

// RetrieveSection calls fn.
func (fn PaginatorFunc) RetrieveSection(ctx context.Context, section int, params page.Params, sink Sink) error {
	return fn(ctx, section, params, sink)
}

// Document is the book whose pages are computed.
type Document interface {
	// ID returns a stable identity of the document, e.g. its path.
	ID() string
	// SectionCount returns the number of independently paginated sections.
	SectionCount() int
	// FormatParams returns the current rendering parameters.
	FormatParams() page.Params
}

// Device is notified while background computation is running so it can keep
// the system awake.
type Device interface {
	SetKeepAwake(on bool)
}

// Store persists finished page indexes. *cache.Cache implements Store.
type Store interface {
	Load(id page.BookID) (io.ReadCloser, error)
	Save(id page.BookID, rd cache.RewindReader) error
	Forget(id page.BookID) error
}

var _ Store = (*cache.Cache)(nil)

type noDevice struct{}

func (noDevice) SetKeepAwake(bool) {}
