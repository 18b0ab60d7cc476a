package fs

import (
	"io"
	"os"
)

// File is an open file as returned by Open.
type File interface {
	io.Reader
	io.Closer

	Stat() (os.FileInfo, error)
	Name() string
}
