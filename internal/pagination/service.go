// Package pagination computes the page index of a document in the background.
//
// Two goroutines do the work: a scheduler, which owns the index and decides
// which section is laid out next, and a worker, which runs the Paginator for
// one section at a time. Callers only exchange messages with the scheduler,
// so the index needs no lock.
package pagination

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/pagemap/internal/page"
	"golang.org/x/sync/errgroup"
)

// Status is a snapshot of the scheduler state.
type Status struct {
	Active bool
	Book   page.BookID

	// Sections is the number of sections of the active document, or -1.
	Sections  int
	Retrieved int
	Failed    int
	Entries   int

	Completed bool
	// Pages is the number of numbered pages once Completed is set, or -1.
	Pages int

	// InFlight is the section being retrieved, or -1.
	InFlight int
	// PriorityPending is the section retrieved after the one in flight, or -1.
	PriorityPending int
}

// Service is the caller side of the pagination pipeline. All methods are safe
// for concurrent use.
type Service struct {
	opts  Options
	inbox chan message

	wg      *errgroup.Group
	cancel  context.CancelFunc
	stopped chan struct{}

	sched *scheduler
	log   log.FieldLogger
}

// New starts the scheduler and worker goroutines. They run until Close is
// called.
func New(p Paginator, opts Options) (*Service, error) {
	if p == nil {
		return nil, errors.New("paginator is nil")
	}
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}

	inbox := make(chan message, opts.InboxSize)
	workerInbox := make(chan message, opts.InboxSize)

	ctx, cancel := context.WithCancel(context.Background())
	wg, wgCtx := errgroup.WithContext(ctx)

	w := &worker{
		paginator: p,
		inbox:     workerInbox,
		results:   inbox,
		log:       opts.Logger.WithField("actor", "worker"),
	}
	sopts := opts
	sopts.Logger = opts.Logger.WithField("actor", "scheduler")
	sched := newScheduler(inbox, workerInbox, sopts)

	s := &Service{
		opts:    opts,
		inbox:   inbox,
		wg:      wg,
		cancel:  cancel,
		stopped: make(chan struct{}),
		sched:   sched,
		log:     opts.Logger,
	}

	wg.Go(func() error {
		defer close(s.stopped)
		return sched.run(wgCtx)
	})
	wg.Go(func() error {
		return w.run(wgCtx)
	})

	return s, nil
}

// bound limits ctx to the request timeout.
func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.RequestTimeout)
}

// interrupted translates the end of a bounded context into an error.
func interrupted(parent, bounded context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return errors.Wrapf(ErrUnavailable, "no answer: %v", bounded.Err())
}

func (s *Service) send(parent, ctx context.Context, msg message) error {
	select {
	case s.inbox <- msg:
		return nil
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return interrupted(parent, ctx)
	}
}

// request sends msg and waits for the reply on ch.
func request[T any](parent context.Context, s *Service, msg message, ch <-chan T) (T, error) {
	var zero T
	ctx, cancel := s.bound(parent)
	defer cancel()

	if err := s.send(parent, ctx, msg); err != nil {
		return zero, err
	}

	select {
	case v := <-ch:
		return v, nil
	case <-s.stopped:
		// the scheduler answers everything before it stops
		select {
		case v := <-ch:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, interrupted(parent, ctx)
	}
}

// StartDocument begins computing the page index of doc, retrieving section
// first before all others. A document that is still running is stopped first.
// If an index computed with the same format parameters is available in memory
// or in the store, nothing is computed.
func (s *Service) StartDocument(ctx context.Context, doc Document, first int) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if err := s.StopDocument(ctx); err != nil {
		return err
	}

	ch := make(chan error, 1)
	res, err := request(ctx, s, startMsg{doc: doc, first: first, reply: ch}, ch)
	if err != nil {
		return err
	}
	return res
}

// StopDocument ends the active document. It returns once the retrieval that
// was in flight, if any, has finished and its result has been discarded.
func (s *Service) StopDocument(ctx context.Context) error {
	ch := make(chan struct{})
	_, err := request(ctx, s, stopMsg{reply: ch}, ch)
	return err
}

func (s *Service) query(ctx context.Context, q *query) (queryReply, error) {
	q.reply = make(chan queryReply, 1)
	res, err := request(ctx, s, queryMsg{q: q}, q.reply)
	if err != nil {
		return queryReply{}, err
	}
	return res, res.err
}

// Lookup returns the info of the page starting at id. If the section of id
// has not been retrieved yet, it is retrieved before all others and Lookup
// waits for it.
func (s *Service) Lookup(ctx context.Context, id page.ID) (page.Info, bool, error) {
	res, err := s.query(ctx, &query{kind: queryLookup, id: id})
	if err != nil {
		return page.Info{}, false, err
	}
	return res.info, res.found, nil
}

// NextPageID returns the page count displayable pages after id. Stepping a
// single page past the end of the document wraps around to the first page.
func (s *Service) NextPageID(ctx context.Context, id page.ID, count int) (page.ID, bool, error) {
	res, err := s.query(ctx, &query{kind: queryNext, id: id, count: count})
	if err != nil {
		return page.ID{}, false, err
	}
	return res.id, res.found, nil
}

// PrevPageID returns the page count displayable pages before id.
func (s *Service) PrevPageID(ctx context.Context, id page.ID, count int) (page.ID, bool, error) {
	res, err := s.query(ctx, &query{kind: queryPrev, id: id, count: count})
	if err != nil {
		return page.ID{}, false, err
	}
	return res.id, res.found, nil
}

// RetrieveSection makes section the next one to be retrieved and waits until
// it is. It returns false if the paginator failed on the section.
func (s *Service) RetrieveSection(ctx context.Context, section int) (bool, error) {
	ch := make(chan sectionReply, 1)
	res, err := request(ctx, s, asapMsg{section: section, reply: ch}, ch)
	if err != nil {
		return false, err
	}
	return res.ok, res.err
}

// Status returns a snapshot of the scheduler state.
func (s *Service) Status(ctx context.Context) (Status, error) {
	ch := make(chan Status, 1)
	return request(ctx, s, statusMsg{reply: ch}, ch)
}

// PageCount returns the number of pages of the active document, or -1 while
// it is still being computed.
func (s *Service) PageCount(ctx context.Context) (int, error) {
	st, err := s.Status(ctx)
	if err != nil {
		return -1, err
	}
	if !st.Active {
		return -1, ErrInactive
	}
	return st.Pages, nil
}

// Wait blocks until the page index of the active document is complete. Unlike
// the other methods it is only bounded by ctx.
func (s *Service) Wait(ctx context.Context) error {
	ch := make(chan error, 1)

	sctx, cancel := s.bound(ctx)
	err := s.send(ctx, sctx, waitMsg{reply: ch})
	cancel()
	if err != nil {
		return err
	}

	select {
	case err := <-ch:
		return err
	case <-s.stopped:
		select {
		case err := <-ch:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops both goroutines. Requests that are still waiting fail with
// ErrClosed.
func (s *Service) Close() error {
	select {
	case s.inbox <- abortMsg{}:
		<-s.stopped
	case <-s.stopped:
	case <-time.After(s.opts.RequestTimeout):
		s.log.Warn("scheduler does not accept abort, cancelling")
	}

	// releases the worker if it still waits to deliver a result
	s.cancel()
	return s.wg.Wait()
}
