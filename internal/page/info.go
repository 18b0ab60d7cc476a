package page

// Unnumbered is the page number of entries that were not numbered (yet).
const Unnumbered = -1

// Info describes one page of the index.
//
// A negative Size marks a page that exists but is never displayed or
// numbered, e.g. a degenerate leading fragment of a section. Its magnitude is
// still the length of the page in bytes.
type Info struct {
	Size   int32
	Number int
}

// Displayable returns true if the page is shown to the reader.
func (i Info) Displayable() bool {
	return i.Size >= 0
}

// Length returns the number of bytes covered by the page.
func (i Info) Length() int {
	if i.Size < 0 {
		return -int(i.Size)
	}
	return int(i.Size)
}
