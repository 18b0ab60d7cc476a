package pagination

import (
	"context"

	"github.com/skyline93/pagemap/internal/page"
)

// message is anything sent to the scheduler or worker inbox.
type message interface {
	isMessage()
}

// abortMsg terminates the receiving actor.
type abortMsg struct{}

// startMsg begins a new document session.
type startMsg struct {
	doc   Document
	first int
	reply chan error
}

// stopMsg ends the current session. The reply is sent once no retrieval for
// the stopped document is running anymore.
type stopMsg struct {
	reply chan struct{}
}

// asapMsg asks for one section to be retrieved before all others.
type asapMsg struct {
	section int
	reply   chan sectionReply
}

type sectionReply struct {
	section int
	ok      bool
	err     error
}

// queryMsg reads from the index on behalf of a caller.
type queryMsg struct {
	q *query
}

// statusMsg asks for a snapshot of the scheduler state.
type statusMsg struct {
	reply chan Status
}

// waitMsg is answered once the current document is complete.
type waitMsg struct {
	reply chan error
}

// retrieveMsg tells the worker to paginate one section. The context is
// cancelled by the scheduler when the result became obsolete.
type retrieveMsg struct {
	ctx      context.Context
	section  int
	priority bool
	params   page.Params
}

// resultMsg is the outcome of a retrieveMsg.
type resultMsg struct {
	section  int
	priority bool
	ok       bool
	records  []page.Record
	err      error
}

func (abortMsg) isMessage()    {}
func (startMsg) isMessage()    {}
func (stopMsg) isMessage()     {}
func (asapMsg) isMessage()     {}
func (queryMsg) isMessage()    {}
func (statusMsg) isMessage()   {}
func (waitMsg) isMessage()     {}
func (retrieveMsg) isMessage() {}
func (resultMsg) isMessage()   {}
