package cache

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/pagemap/internal/fs"
	"github.com/skyline93/pagemap/internal/page"
)

// Cache manages the on-disk page indexes of all books.
type Cache struct {
	path    string
	Created bool

	// Retries is the number of times a failed save is retried.
	Retries uint64

	modes     Modes
	forgotten sync.Map
}

const pagesDir = "pages"

// DefaultRetries is the number of retries for saving a page index.
const DefaultRetries = 3

// New returns a new cache rooted at basedir. The directory is created if it
// does not exist yet.
func New(basedir string) (*Cache, error) {
	if basedir == "" {
		return nil, errors.New("cache directory is empty")
	}

	modes := DeriveModesFromFileInfo(fs.Stat(filepath.Dir(basedir)))

	created := false
	_, err := fs.Stat(basedir)
	if errors.Is(err, os.ErrNotExist) {
		err = fs.MkdirAll(basedir, modes.Dir)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		created = true
		log.Infof("created page cache directory %v", basedir)
	} else if err != nil {
		return nil, errors.WithStack(err)
	}

	err = fs.MkdirAll(filepath.Join(basedir, pagesDir), modes.Dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Cache{
		path:    basedir,
		Created: created,
		Retries: DefaultRetries,
		modes:   modes,
	}, nil
}

// Filename returns the path of the page index file of book id.
func (c *Cache) Filename(id page.BookID) string {
	name := id.String()
	return filepath.Join(c.path, pagesDir, name[:2], name)
}
