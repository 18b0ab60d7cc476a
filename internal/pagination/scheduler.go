package pagination

import (
	"context"
	"time"

	"github.com/bits-and-blooms/bitset"
	log "github.com/sirupsen/logrus"
	"github.com/skyline93/pagemap/internal/index"
	"github.com/skyline93/pagemap/internal/page"
)

const none = -1

// sectionWaiter is called on the scheduler goroutine once a section has been
// retrieved, or with an error if the session ended first.
type sectionWaiter func(ok bool, err error)

// scheduler owns the index and all per-document state. It decides which
// section the worker retrieves next: priority requests first, then a deferred
// start section, then round-robin over the sections not retrieved yet.
//
// All fields are only accessed from the run goroutine.
type scheduler struct {
	inbox  chan message
	worker chan<- message

	store  Store
	device Device
	base   log.FieldLogger
	log    log.FieldLogger

	idx *index.Index

	// document session, sectionCount is none while inactive
	doc          Document
	book         page.BookID
	params       page.Params
	sig          page.Signature
	sectionCount int
	done         *bitset.BitSet
	failed       *bitset.BitSet
	completed    bool
	started      time.Time

	// last finished index kept in memory
	lastBook page.BookID
	lastSig  page.Signature

	inFlight        int
	cancelInFlight  context.CancelFunc
	priorityPending int
	deferredStart   int
	stopping        bool
	discardInFlight bool

	stopReplies []chan struct{}
	waiters     map[int][]sectionWaiter
	completions []chan error
}

func newScheduler(inbox chan message, worker chan<- message, opts Options) *scheduler {
	return &scheduler{
		inbox:           inbox,
		worker:          worker,
		store:           opts.Store,
		device:          opts.Device,
		base:            opts.Logger,
		log:             opts.Logger,
		idx:             index.New(),
		sectionCount:    none,
		inFlight:        none,
		priorityPending: none,
		deferredStart:   none,
		waiters:         make(map[int][]sectionWaiter),
	}
}

func (s *scheduler) run(ctx context.Context) error {
	for {
		var msg message
		select {
		case <-ctx.Done():
			s.shutdown(ctx)
			return nil
		case msg = <-s.inbox:
		}

		switch m := msg.(type) {
		case abortMsg:
			s.shutdown(ctx)
			return nil
		case startMsg:
			m.reply <- s.start(ctx, m.doc, m.first)
		case stopMsg:
			s.stop(m.reply)
		case resultMsg:
			s.result(ctx, m)
		case asapMsg:
			reply := m.reply
			s.asap(ctx, m.section, func(ok bool, err error) {
				reply <- sectionReply{section: m.section, ok: ok, err: err}
			})
		case queryMsg:
			s.eval(ctx, m.q)
		case statusMsg:
			m.reply <- s.status()
		case waitMsg:
			s.wait(m.reply)
		default:
			s.log.Errorf("scheduler received unexpected message %T", msg)
		}
	}
}

func (s *scheduler) active() bool {
	return s.sectionCount != none
}

func (s *scheduler) idle() bool {
	return s.inFlight == none
}

// retrieved reports whether section has been retrieved in this session.
func (s *scheduler) retrieved(section int) bool {
	return s.done != nil && s.done.Test(uint(section))
}

func (s *scheduler) validSection(section int) bool {
	return section >= 0 && section < s.sectionCount
}

// start begins a session for doc. If the worker is still busy with an
// obsolete retrieval, its result is discarded and first is retrieved next.
func (s *scheduler) start(ctx context.Context, doc Document, first int) error {
	// an invalid document leaves the current session alone
	count := doc.SectionCount()
	if count < 0 || count > index.MaxSections {
		return ErrSectionRange
	}

	s.endSession(ErrInactive)

	s.doc = doc
	s.book = page.NewBookID(doc.ID())
	s.params = doc.FormatParams()
	s.sig = s.params.Signature()
	s.sectionCount = count
	s.done = bitset.New(uint(count))
	s.failed = bitset.New(uint(count))
	s.completed = false
	s.started = time.Now()
	s.priorityPending = none
	s.deferredStart = none
	s.log = s.base.WithField("book", s.book.Str())

	if !s.idle() {
		// the result in flight belongs to the previous document
		s.discardInFlight = true
		s.cancel()
	}

	if s.reuse() {
		s.done = s.done.Complement()
		s.completed = true
		s.log.WithField("pages", s.idx.PageCount()).Info("using existing page index")
		return nil
	}

	s.idx.Reset()
	if count == 0 {
		s.complete()
		return nil
	}

	if !s.validSection(first) {
		first = 0
	}

	s.device.SetKeepAwake(true)
	s.log.WithFields(log.Fields{"sections": count, "first": first}).Info("computing page index")

	if s.idle() {
		s.dispatch(ctx, first, false)
	} else {
		s.deferredStart = first
	}
	return nil
}

// reuse returns true if the index in memory or in the store was computed for
// the current document and format.
func (s *scheduler) reuse() bool {
	if s.idx.Final() && s.book == s.lastBook && s.sig == s.lastSig {
		return true
	}
	return s.load()
}

// stop ends the session. The reply is deferred until the retrieval in flight,
// if any, has returned.
func (s *scheduler) stop(reply chan struct{}) {
	if s.active() {
		s.log.Info("stopping document")
	}
	s.endSession(ErrInactive)

	if s.idle() {
		close(reply)
		return
	}

	s.stopping = true
	s.stopReplies = append(s.stopReplies, reply)
	s.cancel()
}

// endSession drops all per-document state and fails everybody waiting on it.
func (s *scheduler) endSession(err error) {
	if !s.active() {
		return
	}

	if !s.completed {
		s.device.SetKeepAwake(false)
	}

	waiters := s.waiters
	s.waiters = make(map[int][]sectionWaiter)
	for _, ws := range waiters {
		for _, w := range ws {
			w(false, err)
		}
	}
	for _, ch := range s.completions {
		ch <- err
	}
	s.completions = nil

	s.doc = nil
	s.sectionCount = none
	s.done = nil
	s.failed = nil
	s.priorityPending = none
	s.deferredStart = none
}

func (s *scheduler) dispatch(ctx context.Context, section int, priority bool) {
	rctx, cancel := context.WithCancel(ctx)
	s.inFlight = section
	s.cancelInFlight = cancel

	s.log.WithFields(log.Fields{"section": section, "priority": priority}).Debug("dispatch")

	select {
	case s.worker <- retrieveMsg{ctx: rctx, section: section, priority: priority, params: s.params}:
	case <-ctx.Done():
	}
}

func (s *scheduler) cancel() {
	if s.cancelInFlight != nil {
		s.cancelInFlight()
	}
}

// result handles the outcome of the retrieval in flight.
func (s *scheduler) result(ctx context.Context, res resultMsg) {
	s.cancel()
	s.cancelInFlight = nil
	section := s.inFlight
	s.inFlight = none

	if section != res.section {
		s.log.Errorf("result for section %d, but %d was in flight", res.section, section)
	}

	discard := false
	if s.stopping {
		s.stopping = false
		for _, reply := range s.stopReplies {
			close(reply)
		}
		s.stopReplies = nil
		discard = true
	}
	if s.discardInFlight {
		s.discardInFlight = false
		discard = true
	}
	if !s.active() {
		discard = true
	}

	if discard {
		s.log.WithField("section", res.section).Debug("discarding obsolete result")
		if s.active() {
			s.next(ctx, res.section)
		}
		return
	}

	s.done.Set(uint(res.section))
	if res.ok {
		for _, rec := range res.records {
			if !s.idx.Insert(rec.ID, rec.Size) {
				s.log.WithFields(log.Fields{"page": rec.ID, "size": rec.Size}).Warn("dropping duplicate or overlapping page")
			}
		}
	} else {
		s.failed.Set(uint(res.section))
		s.log.WithError(res.err).WithField("section", res.section).Warn("section has no pages")
	}

	// waiting callers are answered before the next section is chosen, so
	// their follow-up requests take precedence over round-robin order
	waiters := s.waiters[res.section]
	delete(s.waiters, res.section)
	for _, w := range waiters {
		w(res.ok, nil)
	}

	s.next(ctx, res.section)
}

// next dispatches the next section, if the worker is idle.
func (s *scheduler) next(ctx context.Context, after int) {
	if !s.idle() || !s.active() {
		return
	}

	if sec := s.priorityPending; sec != none {
		s.priorityPending = none
		if !s.retrieved(sec) {
			s.dispatch(ctx, sec, true)
			return
		}
	}

	// a newer priority request may have replaced the one of an earlier
	// caller, who is still waiting
	if sec, ok := s.awaited(); ok {
		s.dispatch(ctx, sec, true)
		return
	}

	if sec := s.deferredStart; sec != none {
		s.deferredStart = none
		if !s.retrieved(sec) {
			s.dispatch(ctx, sec, false)
			return
		}
	}

	if sec, ok := s.nextUnretrieved(after); ok {
		s.dispatch(ctx, sec, false)
		return
	}

	if !s.completed {
		s.complete()
	}
}

// awaited returns the lowest section not retrieved yet that callers are
// waiting for.
func (s *scheduler) awaited() (int, bool) {
	sec := none
	for w := range s.waiters {
		if !s.retrieved(w) && (sec == none || w < sec) {
			sec = w
		}
	}
	return sec, sec != none
}

// nextUnretrieved returns the first section after the given one, wrapping
// around at the end, that has not been retrieved yet.
func (s *scheduler) nextUnretrieved(after int) (int, bool) {
	n := uint(s.sectionCount)
	if after >= 0 {
		if sec, ok := s.done.NextClear(uint(after) + 1); ok && sec < n {
			return int(sec), true
		}
	}
	if sec, ok := s.done.NextClear(0); ok && sec < n {
		return int(sec), true
	}
	return none, false
}

// complete numbers the pages and persists the index.
func (s *scheduler) complete() {
	pages := s.idx.Finalize()
	s.completed = true
	s.lastBook = s.book
	s.lastSig = s.sig

	s.log.WithFields(log.Fields{
		"pages":   pages,
		"failed":  s.failed.Count(),
		"elapsed": time.Since(s.started).Round(time.Millisecond),
	}).Info("page index complete")

	s.save()
	s.device.SetKeepAwake(false)

	for _, ch := range s.completions {
		ch <- nil
	}
	s.completions = nil
}

// asap makes section the next one to be retrieved and calls w once it is.
func (s *scheduler) asap(ctx context.Context, section int, w sectionWaiter) {
	if !s.active() {
		w(false, ErrInactive)
		return
	}
	if !s.validSection(section) {
		w(false, ErrSectionRange)
		return
	}
	if s.retrieved(section) {
		w(!s.failed.Test(uint(section)), nil)
		return
	}

	s.waiters[section] = append(s.waiters[section], w)

	switch {
	case s.inFlight == section && !s.discardInFlight && !s.stopping:
		// answered by the result in flight
	case !s.idle():
		s.priorityPending = section
	default:
		s.dispatch(ctx, section, true)
	}
}

func (s *scheduler) wait(reply chan error) {
	switch {
	case !s.active():
		reply <- ErrInactive
	case s.completed:
		reply <- nil
	default:
		s.completions = append(s.completions, reply)
	}
}

func (s *scheduler) status() Status {
	st := Status{
		Sections:        s.sectionCount,
		InFlight:        s.inFlight,
		PriorityPending: s.priorityPending,
		Pages:           -1,
	}
	if !s.active() {
		return st
	}

	st.Active = true
	st.Book = s.book
	st.Retrieved = int(s.done.Count())
	st.Failed = int(s.failed.Count())
	st.Completed = s.completed
	st.Entries = s.idx.Len()
	if s.completed {
		st.Pages = s.idx.PageCount()
	}
	return st
}

// shutdown fails all pending requests and stops the worker.
func (s *scheduler) shutdown(ctx context.Context) {
	s.log.Debug("scheduler shutting down")
	s.endSession(ErrClosed)
	s.cancel()
	for _, reply := range s.stopReplies {
		close(reply)
	}
	s.stopReplies = nil

	select {
	case s.worker <- abortMsg{}:
	case <-ctx.Done():
	}
}
