package index

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/pagemap/internal/page"
)

// Index holds the page boundaries of one document laid out with one set of
// format parameters.
//
// An Index is not safe for concurrent use. In the pagination service it is
// owned by the scheduler goroutine and every read or write goes through it.
type Index struct {
	m indexMap

	final   bool // set once all sections were retrieved and pages were numbered
	pages   int
	created time.Time
}

// New returns a new, empty index.
func New() *Index {
	return &Index{
		created: time.Now(),
		pages:   -1,
	}
}

// Reset removes all entries and clears the final flag.
func (idx *Index) Reset() {
	idx.m.reset()
	idx.final = false
	idx.pages = -1
	idx.created = time.Now()
}

// Insert adds a page boundary. The page number stays unassigned until the
// index is finalized. Inserting an ID that is already present, or a page
// that overlaps a neighbour in the same section, is a no-op and returns false.
func (idx *Index) Insert(id page.ID, size int32) bool {
	info := page.Info{Size: size, Number: page.Unnumbered}
	if idx.overlaps(id, info) {
		return false
	}
	return idx.m.add(id, info)
}

// overlaps returns true if a page at id with info would cover bytes of the
// pages before or after it in the same section.
func (idx *Index) overlaps(id page.ID, info page.Info) bool {
	pos := idx.m.search(id)
	if pos > 0 {
		prev := idx.m.entries[pos-1]
		if prev.id.Section == id.Section && id.Offset < prev.id.Offset+prev.info.Length() {
			return true
		}
	}
	if pos < idx.m.len() {
		next := idx.m.entries[pos].id
		if next != id && next.Section == id.Section && next.Offset < id.Offset+info.Length() {
			return true
		}
	}
	return false
}

// Get returns the info stored for id.
func (idx *Index) Get(id page.ID) (page.Info, bool) {
	pos, ok := idx.m.get(id)
	if !ok {
		return page.Info{}, false
	}
	return idx.m.entries[pos].info, true
}

// Len returns the number of entries, displayable or not.
func (idx *Index) Len() int {
	return idx.m.len()
}

// HasSection returns true if at least one entry belongs to section.
func (idx *Index) HasSection(section int) bool {
	pos := idx.m.search(page.ID{Section: section})
	return pos < idx.m.len() && idx.m.entries[pos].id.Section == section
}

// Sections returns the sections which have at least one entry, in ascending
// order.
func (idx *Index) Sections() []int {
	var sections []int
	for _, e := range idx.m.entries {
		if n := len(sections); n == 0 || sections[n-1] != e.id.Section {
			sections = append(sections, e.id.Section)
		}
	}
	return sections
}

// Each calls fn for all entries in ascending ID order until fn returns false.
func (idx *Index) Each(fn func(id page.ID, info page.Info) bool) {
	for _, e := range idx.m.entries {
		if !fn(e.id, e.info) {
			return
		}
	}
}

// Records returns all entries as page boundary records, in ascending order.
func (idx *Index) Records() []page.Record {
	recs := make([]page.Record, 0, idx.m.len())
	for _, e := range idx.m.entries {
		recs = append(recs, page.Record{ID: e.id, Size: e.info.Size})
	}
	return recs
}

// Finalize numbers all displayable pages in ascending ID order, marks the
// index as final and returns the number of pages.
func (idx *Index) Finalize() int {
	n := 0
	for i := range idx.m.entries {
		e := &idx.m.entries[i]
		if !e.info.Displayable() {
			e.info.Number = page.Unnumbered
			continue
		}
		e.info.Number = n
		n++
	}

	idx.final = true
	idx.pages = n

	log.WithFields(log.Fields{
		"entries": idx.m.len(),
		"pages":   n,
		"elapsed": time.Since(idx.created).Round(time.Millisecond),
	}).Debug("finalized page index")
	return n
}

// Final returns true once the index has been finalized.
func (idx *Index) Final() bool {
	return idx.final
}

// PageCount returns the number of numbered pages, or -1 if the index is not
// final yet.
func (idx *Index) PageCount() int {
	if !idx.final {
		return -1
	}
	return idx.pages
}

// Verify checks that the pages of each section do not overlap and, for a
// final index, that page numbers are contiguous.
func (idx *Index) Verify() error {
	next := 0
	for i, e := range idx.m.entries {
		if i > 0 {
			prev := idx.m.entries[i-1]
			if prev.id.Section == e.id.Section && e.id.Offset < prev.id.Offset+prev.info.Length() {
				return errors.Errorf("page %v overlaps page %v (size %d)", e.id, prev.id, prev.info.Size)
			}
		}

		if !idx.final {
			continue
		}
		want := page.Unnumbered
		if e.info.Displayable() {
			want = next
			next++
		}
		if e.info.Number != want {
			return errors.Errorf("page %v has number %d, want %d", e.id, e.info.Number, want)
		}
	}
	return nil
}
