package pagination

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultInboxSize is the capacity of the scheduler and worker inboxes.
const DefaultInboxSize = 5

// DefaultRequestTimeout bounds how long a caller waits for an answer.
const DefaultRequestTimeout = 10 * time.Second

// Options configure a Service.
type Options struct {
	// InboxSize is the capacity of the actor inboxes.
	InboxSize int

	// RequestTimeout bounds every blocking call except Wait. Requests that
	// are not answered in time fail with ErrUnavailable.
	RequestTimeout time.Duration

	// Store persists finished indexes. Persistence is disabled if nil.
	Store Store

	// Device is told to stay awake while pages are computed.
	Device Device

	Logger log.FieldLogger
}

// NewOptions returns options with the default values applied.
func NewOptions() Options {
	return Options{
		InboxSize:      DefaultInboxSize,
		RequestTimeout: DefaultRequestTimeout,
	}
}

func (o *Options) applyDefaults() error {
	if o.InboxSize < 0 {
		return errors.Errorf("invalid inbox size %d", o.InboxSize)
	}
	if o.RequestTimeout < 0 {
		return errors.Errorf("invalid request timeout %v", o.RequestTimeout)
	}

	if o.InboxSize == 0 {
		o.InboxSize = DefaultInboxSize
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.Device == nil {
		o.Device = noDevice{}
	}
	if o.Logger == nil {
		o.Logger = log.StandardLogger()
	}
	return nil
}
