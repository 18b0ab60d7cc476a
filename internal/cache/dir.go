package cache

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultDir returns $PAGECACHE_DIR, or the pagemap directory in the
// default cache directory of the user.
func DefaultDir() (string, error) {
	if dir := os.Getenv("PAGECACHE_DIR"); dir != "" {
		return dir, nil
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to locate cache directory")
	}
	return filepath.Join(base, "pagemap"), nil
}
