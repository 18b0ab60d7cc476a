package pagination

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/skyline93/pagemap/internal/page"
)

const testTimeout = 5 * time.Second

// bookRecords are the pages of a three-section book, by section.
var bookRecords = map[int][]page.Record{
	0: {
		{ID: page.ID{Section: 0, Offset: 0}, Size: 500},
		{ID: page.ID{Section: 0, Offset: 500}, Size: 300},
	},
	1: {
		{ID: page.ID{Section: 1, Offset: 0}, Size: 800},
	},
	2: {
		{ID: page.ID{Section: 2, Offset: 0}, Size: -1},
		{ID: page.ID{Section: 2, Offset: 1}, Size: 600},
	},
}

type testDoc struct {
	id       string
	sections int
	params   page.Params
}

func (d testDoc) ID() string                { return d.id }
func (d testDoc) SectionCount() int         { return d.sections }
func (d testDoc) FormatParams() page.Params { return d.params }

var book = testDoc{
	id:       "/books/test",
	sections: 3,
	params:   page.Params{FontSize: 12, FontFamily: "serif"},
}

// fakePaginator returns fixed records. If gated, every retrieval reports its
// section on started and then waits for a value on release.
type fakePaginator struct {
	records map[int][]page.Record
	fail    map[int]bool
	panics  map[int]bool

	gated   bool
	started chan int
	release chan struct{}
	drained sync.Once

	mu       sync.Mutex
	calls    []int
	rejected map[int]int
}

func newFakePaginator(records map[int][]page.Record) *fakePaginator {
	return &fakePaginator{
		records:  records,
		fail:     make(map[int]bool),
		panics:   make(map[int]bool),
		started:  make(chan int, 64),
		release:  make(chan struct{}),
		rejected: make(map[int]int),
	}
}

func newGatedPaginator(records map[int][]page.Record) *fakePaginator {
	p := newFakePaginator(records)
	p.gated = true
	return p
}

func (p *fakePaginator) RetrieveSection(_ context.Context, section int, params page.Params, sink Sink) error {
	p.mu.Lock()
	p.calls = append(p.calls, section)
	p.mu.Unlock()

	if p.gated {
		select {
		case p.started <- section:
		default:
		}
		<-p.release
	}

	if p.panics[section] {
		panic("layout engine crashed")
	}
	if p.fail[section] {
		return errors.New("layout failed")
	}

	for _, rec := range p.records[section] {
		// the font size shifts the page sizes so documents laid out with
		// different parameters can be told apart
		if !sink.Insert(rec.ID, rec.Size+int32(params.FontSize)-12) {
			p.mu.Lock()
			p.rejected[section]++
			p.mu.Unlock()
		}
	}
	return nil
}

func (p *fakePaginator) Calls() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.calls...)
}

func (p *fakePaginator) Rejected(section int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rejected[section]
}

// expectStarted waits until the paginator starts retrieving a section and
// returns it.
func (p *fakePaginator) expectStarted(t *testing.T) int {
	t.Helper()
	select {
	case section := <-p.started:
		return section
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for a retrieval to start")
	}
	return -1
}

// step lets one retrieval finish.
func (p *fakePaginator) step(t *testing.T) {
	t.Helper()
	select {
	case p.release <- struct{}{}:
	case <-time.After(testTimeout):
		t.Fatal("timeout releasing retrieval")
	}
}

// drain releases all current and future retrievals.
func (p *fakePaginator) drain() {
	p.drained.Do(func() { close(p.release) })
}

type fakeDevice struct {
	mu    sync.Mutex
	calls []bool
}

func (d *fakeDevice) SetKeepAwake(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, on)
}

func (d *fakeDevice) Calls() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]bool(nil), d.calls...)
}

func testLogger() log.FieldLogger {
	logger := log.New()
	logger.SetLevel(log.DebugLevel)
	return logger
}

func newTestService(t *testing.T, p Paginator, opts Options) *Service {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	svc, err := New(p, opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		if fp, ok := p.(*fakePaginator); ok && fp.gated {
			fp.drain()
		}
		require.NoError(t, svc.Close())
	})
	return svc
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}
