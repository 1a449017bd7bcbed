package metrics

// Sink defines the interface for recording tracking metrics.
// All methods are fire-and-forget: implementations MUST NOT block or
// propagate errors. The sink is always an injected dependency, never a
// package-level global, so the pipeline stays testable in isolation.
type Sink interface {
	// Ingest pipeline
	LocationIngested()
	LocationRejected()
	HistoryWriteFailure()
	ETAComputed()

	// State machine
	StatusTransition(status string)
	TransitionRejected()

	// Fan-out
	EventBroadcast(eventType string)
	SubscriberDropped()
	ClientConnected()
	ClientDisconnected()

	// Cache
	CacheHit(key string)
	CacheMiss(key string)
}

// Cache key kinds for CacheHit / CacheMiss.
const (
	CacheKindLocation = "location"
	CacheKindInfo     = "info"
)

// Noop discards every observation. Useful default for tests.
type Noop struct{}

func (Noop) LocationIngested()            {}
func (Noop) LocationRejected()            {}
func (Noop) HistoryWriteFailure()         {}
func (Noop) ETAComputed()                 {}
func (Noop) StatusTransition(string)      {}
func (Noop) TransitionRejected()          {}
func (Noop) EventBroadcast(string)        {}
func (Noop) SubscriberDropped()           {}
func (Noop) ClientConnected()             {}
func (Noop) ClientDisconnected()          {}
func (Noop) CacheHit(string)              {}
func (Noop) CacheMiss(string)             {}
