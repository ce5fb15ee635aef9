package render

// EventKind classifies scheduler notifications.
type EventKind int

const (
	// EventRendered is emitted when a render completes and its result is
	// delivered (cache hits included).
	EventRendered EventKind = iota
	// EventFailed is emitted when a render fails. Err carries the cause.
	EventFailed
	// EventSettled is emitted when a preview result is delivered and no
	// newer request is pending: the adjustment state has settled.
	// Persistence layers debounce on this.
	EventSettled
)

func (k EventKind) String() string {
	switch k {
	case EventFailed:
		return "failed"
	case EventSettled:
		return "settled"
	default:
		return "rendered"
	}
}

// Event is an asynchronous scheduler notification. Subscribers that fall
// behind lose events; the channel never blocks the render worker.
type Event struct {
	Kind       EventKind
	ImageID    string
	Quality    Quality
	Generation uint64
	Err        error
}
