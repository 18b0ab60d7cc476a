package index

import (
	"sort"

	"github.com/skyline93/pagemap/internal/page"
)

// An indexMap is an ordered map from page IDs to page info. Entries are kept
// in a slice sorted by ID.
//
// Paginators report the pages of a section in ascending order and sections
// are mostly retrieved in ascending order as well, so nearly all inserts are
// appends. Deletions are not supported, only a full reset.
type indexMap struct {
	entries []indexEntry
}

type indexEntry struct {
	id   page.ID
	info page.Info
}

func (m *indexMap) len() int {
	return len(m.entries)
}

func (m *indexMap) reset() {
	m.entries = nil
}

// search returns the position of the first entry with an ID not less than id.
func (m *indexMap) search(id page.ID) int {
	n := len(m.entries)
	if n == 0 || m.entries[n-1].id.Less(id) {
		return n
	}
	return sort.Search(n, func(i int) bool {
		return !m.entries[i].id.Less(id)
	})
}

// get returns the position of id and true, or false if it is not present.
func (m *indexMap) get(id page.ID) (int, bool) {
	pos := m.search(id)
	if pos < len(m.entries) && m.entries[pos].id == id {
		return pos, true
	}
	return pos, false
}

// add inserts an entry for id. It returns false and leaves the map unchanged
// if id is already present.
func (m *indexMap) add(id page.ID, info page.Info) bool {
	pos, ok := m.get(id)
	if ok {
		return false
	}

	if pos == len(m.entries) {
		m.entries = append(m.entries, indexEntry{id: id, info: info})
		return true
	}

	m.entries = append(m.entries, indexEntry{})
	copy(m.entries[pos+1:], m.entries[pos:])
	m.entries[pos] = indexEntry{id: id, info: info}
	return true
}
