package pagination

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"github.com/skyline93/pagemap/internal/cache"
	"github.com/skyline93/pagemap/internal/index"
)

// load replaces the index with the one stored for the current document. It
// returns false if there is none or it was computed with other format
// parameters. Files which cannot be decoded are removed from the store.
func (s *scheduler) load() bool {
	if s.store == nil {
		return false
	}

	rd, err := s.store.Load(s.book)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	if err != nil {
		s.log.WithError(err).Warn("loading page index failed")
		return false
	}
	defer func() {
		_ = rd.Close()
	}()

	err = s.idx.Decode(rd, s.sig)
	switch {
	case err == nil:
	case errors.Is(err, index.ErrSignature):
		s.log.Info("stored page index was computed with other format parameters")
		return false
	default:
		s.log.WithError(err).Warn("stored page index is unusable, removing it")
		if ferr := s.store.Forget(s.book); ferr != nil {
			s.log.WithError(ferr).Warn("removing page index failed")
		}
		return false
	}

	if s.idx.Len() > 0 {
		if last := s.idx.Sections(); last[len(last)-1] >= s.sectionCount {
			s.log.Warn("stored page index does not match the document")
			s.idx.Reset()
			return false
		}
	}

	s.lastBook = s.book
	s.lastSig = s.sig
	return true
}

// save writes the finished index to the store. Errors are logged, the index
// is simply computed again next time.
func (s *scheduler) save() {
	if s.store == nil {
		return
	}

	var buf bytes.Buffer
	if err := s.idx.Encode(&buf, s.sig); err != nil {
		s.log.WithError(err).Warn("encoding page index failed")
		return
	}

	if err := s.store.Save(s.book, cache.NewByteReader(buf.Bytes())); err != nil {
		s.log.WithError(err).Warn("saving page index failed")
	}
}
