package cachewrapper

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; wrap slow sinks with
// hooks/async.
type Hooks interface {
	// An operation was buffered because the client was not ready.
	// depth is the buffer length including this entry.
	RequestQueued(id string, op Op, segment string, depth int)

	// A reconnect attempt began.
	ReconnectStarted()

	// A reconnect attempt ended; settled entries were replayed (err == nil)
	// or rejected.
	ReconnectFinished(settled int, err error)

	// A prefix scan failed and the delete it served was abandoned.
	ScanFailed(namespace string, err error)

	// Dropping one key during a delete failed.
	DropFailed(storageKey string, err error)

	// A stored value could not be decoded (corrupt envelope or codec error).
	DecodeFailed(storageKey string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RequestQueued(string, Op, string, int) {}
func (NopHooks) ReconnectStarted()                     {}
func (NopHooks) ReconnectFinished(int, error)          {}
func (NopHooks) ScanFailed(string, error)              {}
func (NopHooks) DropFailed(string, error)              {}
func (NopHooks) DecodeFailed(string, error)            {}
