package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/pagemap/internal/fs"
	"github.com/skyline93/pagemap/internal/page"
)

// Load opens the page index file of book id. If no file exists, the returned
// error wraps os.ErrNotExist.
func (c *Cache) Load(id page.BookID) (io.ReadCloser, error) {
	f, err := fs.Open(c.Filename(id))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// Save atomically replaces the page index file of book id with the data read
// from rd. Failed attempts are retried with exponential backoff.
func (c *Cache) Save(id page.BookID, rd RewindReader) error {
	filename := c.Filename(id)

	op := func() error {
		if err := rd.Rewind(); err != nil {
			return backoff.Permanent(err)
		}
		err := c.save(filename, rd)
		if permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, d time.Duration) {
		log.WithError(err).Warnf("saving %v failed, retrying in %v", id.Str(), d)
	}

	err := backoff.RetryNotify(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.Retries), notify)
	if err != nil {
		return errors.Wrapf(err, "save page index %v", id.Str())
	}

	log.Debugf("saved page index %v (%d bytes)", id.Str(), rd.Length())
	return nil
}

// permanent returns true for errors that retrying a save cannot fix.
func permanent(err error) bool {
	return errors.Is(err, os.ErrPermission) ||
		errors.Is(err, syscall.EROFS) ||
		errors.Is(err, syscall.ENOTDIR)
}

func (c *Cache) save(filename string, rd io.Reader) (err error) {
	dir := filepath.Dir(filename)
	if err = fs.MkdirAll(dir, c.modes.Dir); err != nil {
		return errors.WithStack(err)
	}

	f, err := fs.TempFile(dir, "tmp-")
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			_ = f.Close() // ignore secondary errors closing the file
			_ = fs.RemoveIfExists(f.Name())
		}
	}()

	if _, err = io.Copy(f, rd); err != nil {
		return errors.Wrap(err, "Write")
	}
	if err = f.Sync(); err != nil {
		return errors.Wrap(err, "Sync")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "Close")
	}
	if err = fs.Chmod(f.Name(), c.modes.File); err != nil {
		return errors.WithStack(err)
	}
	if err = fs.Rename(f.Name(), filename); err != nil {
		return errors.WithStack(err)
	}

	return fs.SyncDir(dir)
}

// Forget removes the page index file of book id, e.g. because it could not
// be decoded.
func (c *Cache) Forget(id page.BookID) error {
	if _, ok := c.forgotten.Load(id); ok {
		// Delete a file at most once while running.
		// This prevents repeatedly caching and forgetting broken files
		return fmt.Errorf("circuit breaker prevents repeated deletion of cached file %v", id.Str())
	}

	removed, err := c.remove(id)
	if removed {
		c.forgotten.Store(id, struct{}{})
	}
	return err
}

// remove deletes a file. When the file is not cached, no error is returned.
func (c *Cache) remove(id page.BookID) (bool, error) {
	err := fs.Remove(c.Filename(id))
	removed := err == nil
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	return removed, err
}

// Clear removes all page index files of books that are not contained in the
// set valid.
func (c *Cache) Clear(valid page.BookIDSet) (int, error) {
	log.Debugf("clearing page cache: %v valid files", len(valid))

	list, err := c.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for id := range list {
		if valid.Has(id) {
			continue
		}

		if err = fs.Remove(c.Filename(id)); err != nil {
			return removed, errors.WithStack(err)
		}
		removed++
	}

	return removed, nil
}

func isFile(fi os.FileInfo) bool {
	return fi.Mode()&(os.ModeType|os.ModeCharDevice) == 0
}

// List returns the IDs of all books in the cache.
func (c *Cache) List() (page.BookIDSet, error) {
	list := page.NewBookIDSet()
	dir := filepath.Join(c.path, pagesDir)
	err := filepath.Walk(dir, func(name string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrap(err, "Walk")
		}

		if !isFile(fi) {
			return nil
		}

		id, err := page.ParseBookID(filepath.Base(name))
		if err != nil {
			return nil
		}

		list.Insert(id)
		return nil
	})

	return list, err
}

// Has returns true if a page index file exists for book id.
func (c *Cache) Has(id page.BookID) bool {
	_, err := fs.Stat(c.Filename(id))
	return err == nil
}
