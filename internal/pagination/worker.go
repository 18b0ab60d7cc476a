package pagination

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/pagemap/internal/page"
)

// worker paginates one section at a time.
type worker struct {
	paginator Paginator
	inbox     <-chan message
	results   chan<- message
	log       log.FieldLogger
}

// recordSink collects the records of one retrieval.
type recordSink struct {
	ctx     context.Context
	section int
	records []page.Record
}

func (s *recordSink) Insert(id page.ID, size int32) bool {
	if s.ctx.Err() != nil {
		return false
	}
	if id.Section != s.section || id.Offset < 0 {
		return false
	}
	s.records = append(s.records, page.Record{ID: id, Size: size})
	return true
}

func (w *worker) run(ctx context.Context) error {
	for {
		var msg message
		select {
		case <-ctx.Done():
			return nil
		case msg = <-w.inbox:
		}

		switch m := msg.(type) {
		case abortMsg:
			w.log.Debug("worker aborted")
			return nil
		case retrieveMsg:
			res := w.retrieve(m)
			select {
			case w.results <- res:
			case <-ctx.Done():
				return nil
			}
		default:
			w.log.Errorf("worker received unexpected message %T", msg)
		}
	}
}

func (w *worker) retrieve(m retrieveMsg) (res resultMsg) {
	res = resultMsg{section: m.section, priority: m.priority}
	logger := w.log.WithFields(log.Fields{"section": m.section, "priority": m.priority})
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.ok = false
			res.records = nil
			res.err = errors.Errorf("paginator panic: %v", r)
			logger.Error(res.err)
		}
	}()

	sink := &recordSink{ctx: m.ctx, section: m.section}
	err := w.paginator.RetrieveSection(m.ctx, m.section, m.params, sink)
	if err != nil {
		res.err = errors.Wrapf(err, "retrieve section %d", m.section)
		logger.WithError(err).Warn("retrieving section failed")
		return res
	}

	res.ok = true
	res.records = sink.records
	logger.Debugf("retrieved %d pages in %v", len(sink.records), time.Since(start).Round(time.Millisecond))
	return res
}
