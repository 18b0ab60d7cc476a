package page

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies the start of a page: a section of the document and the byte
// offset within that section.
type ID struct {
	Section int
	Offset  int
}

// First is the first page of every document.
var First = ID{}

// Compare orders IDs by section, then by offset. It returns -1, 0 or +1.
func (id ID) Compare(other ID) int {
	switch {
	case id.Section < other.Section:
		return -1
	case id.Section > other.Section:
		return 1
	case id.Offset < other.Offset:
		return -1
	case id.Offset > other.Offset:
		return 1
	}
	return 0
}

// Less returns true if id sorts before other.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}

func (id ID) String() string {
	return fmt.Sprintf("%d:%d", id.Section, id.Offset)
}

// ParseID parses the "section:offset" form returned by ID.String.
func ParseID(s string) (ID, error) {
	sec, off, ok := strings.Cut(s, ":")
	if !ok {
		return ID{}, fmt.Errorf("invalid page id %q", s)
	}
	section, err := strconv.Atoi(sec)
	if err != nil || section < 0 {
		return ID{}, fmt.Errorf("invalid section in page id %q", s)
	}
	offset, err := strconv.Atoi(off)
	if err != nil || offset < 0 {
		return ID{}, fmt.Errorf("invalid offset in page id %q", s)
	}
	return ID{Section: section, Offset: offset}, nil
}

// Record is a page boundary as reported by a paginator.
type Record struct {
	ID   ID
	Size int32
}
