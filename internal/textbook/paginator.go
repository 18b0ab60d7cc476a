package textbook

import (
	"bytes"
	"context"
	"io"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/pagemap/internal/fs"
	"github.com/skyline93/pagemap/internal/page"
	"github.com/skyline93/pagemap/internal/pagination"
)

// Page geometry at the reference font size in portrait orientation.
const (
	referenceFontSize = 12
	referenceLines    = 40
	referenceColumns  = 66
)

// Capacity returns the number of characters that fit on one page.
func Capacity(params page.Params) int {
	size := int(params.FontSize)
	if size == 0 {
		size = referenceFontSize
	}

	lines := referenceLines * referenceFontSize / size
	cols := referenceColumns * referenceFontSize / size
	if params.Orientation == page.Landscape {
		lines, cols = lines*2/3, cols*3/2
	}
	if params.ShowTitle {
		// the running title takes one line
		lines--
	}

	return max(lines, 1) * max(cols, 1)
}

// Paginator lays out the sections of a Book.
type Paginator struct {
	book *Book
	log  log.FieldLogger
}

var _ pagination.Paginator = (*Paginator)(nil)

// NewPaginator returns a paginator for the sections of b.
func NewPaginator(b *Book, logger log.FieldLogger) *Paginator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Paginator{book: b, log: logger}
}

// RetrieveSection reads the section file and reports a page boundary every
// Capacity characters, breaking at line ends where possible. Blank lines at
// the start of a section form a page which is never displayed.
func (p *Paginator) RetrieveSection(ctx context.Context, section int, params page.Params, sink pagination.Sink) error {
	filename, err := p.book.Section(section)
	if err != nil {
		return err
	}

	f, err := fs.Open(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return errors.Wrap(err, "ReadAll")
	}
	if len(data) > math.MaxInt32 {
		return errors.Errorf("section %d is too large: %d bytes", section, len(data))
	}

	pages := 0
	split(data, Capacity(params), func(offset, size int) bool {
		if ctx.Err() != nil {
			return false
		}
		pages++
		return sink.Insert(page.ID{Section: section, Offset: offset}, int32(size))
	})

	p.log.WithField("section", section).Debugf("%d pages in %d bytes", pages, len(data))
	return ctx.Err()
}

// split calls emit for every page of data. It stops once emit returns false.
func split(data []byte, capacity int, emit func(offset, size int) bool) {
	start := leadingBlank(data)
	if start > 0 && !emit(0, -start) {
		return
	}

	pageStart, pos, used := start, start, 0
	for pos < len(data) {
		lineEnd := len(data)
		if i := bytes.IndexByte(data[pos:], '\n'); i >= 0 {
			lineEnd = pos + i + 1
		}
		n := utf8.RuneCount(data[pos:lineEnd])

		if used > 0 && used+n > capacity {
			if !emit(pageStart, pos-pageStart) {
				return
			}
			pageStart, used = pos, 0
		}

		// lines longer than a page are cut
		for n > capacity {
			cut := pos + runePrefix(data[pos:lineEnd], capacity)
			if !emit(pageStart, cut-pageStart) {
				return
			}
			pageStart, pos = cut, cut
			n -= capacity
		}

		used += n
		pos = lineEnd
	}

	if pos > pageStart {
		emit(pageStart, pos-pageStart)
	}
}

// leadingBlank returns the length of the blank lines at the start of data.
func leadingBlank(data []byte) int {
	pos := 0
	for pos < len(data) {
		end := len(data)
		if i := bytes.IndexByte(data[pos:], '\n'); i >= 0 {
			end = pos + i + 1
		}
		if len(bytes.TrimSpace(data[pos:end])) > 0 {
			break
		}
		pos = end
	}
	return pos
}

// runePrefix returns the length in bytes of the first n runes of b.
func runePrefix(b []byte, n int) int {
	off := 0
	for i := 0; i < n && off < len(b); i++ {
		_, size := utf8.DecodeRune(b[off:])
		off += size
	}
	return off
}
