package index

import "github.com/skyline93/pagemap/internal/page"

// Step is the outcome of walking the index from one page to another.
type Step struct {
	// ID is the target page, valid if Found is set.
	ID    page.ID
	Found bool

	// Need is the section that has to be retrieved before the walk can
	// continue, or -1.
	Need int
}

func found(id page.ID) Step {
	return Step{ID: id, Found: true, Need: -1}
}

func need(section int) Step {
	return Step{Need: section}
}

var noPage = Step{Need: -1}

// Next walks count displayable pages forward from id. Sections for which
// retrieved returns false stop the walk with Step.Need set, since their
// entries may still be missing.
//
// Stepping a single page past the last of sectionCount sections wraps around
// to page.First. Larger steps past the end find no page.
func (idx *Index) Next(id page.ID, count, sectionCount int, retrieved func(section int) bool) Step {
	if count <= 0 {
		return noPage
	}

	cur := id.Section
	if !retrieved(cur) {
		return need(cur)
	}

	pos := idx.m.search(page.ID{Section: id.Section, Offset: id.Offset + 1})
	remaining := count
	for {
		for ; pos < idx.m.len() && idx.m.entries[pos].id.Section == cur; pos++ {
			e := idx.m.entries[pos]
			if !e.info.Displayable() {
				continue
			}
			remaining--
			if remaining == 0 {
				return found(e.id)
			}
		}

		cur++
		if cur >= sectionCount {
			if count == 1 {
				return found(page.First)
			}
			return noPage
		}
		if !retrieved(cur) {
			return need(cur)
		}
		pos = idx.m.search(page.ID{Section: cur})
	}
}

// Prev walks count displayable pages backward from id, crossing into the last
// pages of earlier sections. Sections for which retrieved returns false stop
// the walk with Step.Need set. There is no wrap-around before the first page.
func (idx *Index) Prev(id page.ID, count int, retrieved func(section int) bool) Step {
	if count <= 0 {
		return noPage
	}

	cur := id.Section
	if !retrieved(cur) {
		return need(cur)
	}

	pos := idx.m.search(id) - 1
	remaining := count
	for {
		for ; pos >= 0 && idx.m.entries[pos].id.Section == cur; pos-- {
			e := idx.m.entries[pos]
			if !e.info.Displayable() {
				continue
			}
			remaining--
			if remaining == 0 {
				return found(e.id)
			}
		}

		cur--
		if cur < 0 {
			return noPage
		}
		if !retrieved(cur) {
			return need(cur)
		}
		pos = idx.m.search(page.ID{Section: cur + 1}) - 1
	}
}
