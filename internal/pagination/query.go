package pagination

import (
	"context"

	"github.com/skyline93/pagemap/internal/index"
	"github.com/skyline93/pagemap/internal/page"
)

type queryKind uint8

const (
	queryLookup queryKind = iota
	queryNext
	queryPrev
)

// query is a read of the index on behalf of a caller. Queries that need a
// section which has not been retrieved yet are parked until it has been.
type query struct {
	kind  queryKind
	id    page.ID
	count int
	reply chan queryReply
}

type queryReply struct {
	id    page.ID
	info  page.Info
	found bool
	err   error
}

func (s *scheduler) eval(ctx context.Context, q *query) {
	if !s.active() {
		q.reply <- queryReply{err: ErrInactive}
		return
	}
	if !s.validSection(q.id.Section) {
		q.reply <- queryReply{}
		return
	}

	var step index.Step
	switch q.kind {
	case queryLookup:
		if !s.retrieved(q.id.Section) {
			step = index.Step{Need: q.id.Section}
			break
		}
		info, ok := s.idx.Get(q.id)
		q.reply <- queryReply{id: q.id, info: info, found: ok}
		return
	case queryNext:
		step = s.idx.Next(q.id, q.count, s.sectionCount, s.retrieved)
	case queryPrev:
		step = s.idx.Prev(q.id, q.count, s.retrieved)
	}

	if step.Need == none {
		q.reply <- queryReply{id: step.ID, found: step.Found}
		return
	}

	s.asap(ctx, step.Need, func(_ bool, err error) {
		if err != nil {
			q.reply <- queryReply{err: err}
			return
		}
		s.eval(ctx, q)
	})
}
