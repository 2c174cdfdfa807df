package wire

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrCorrupt = errors.New("cachewrapper: corrupt entry")

const encodingBase64 = "base64"

// envelope is the stored shape, shared with catbox-redis writers:
//
//	{"item": <value>, "stored": <unix ms>, "ttl": <ms>}
//
// Payloads that are not JSON documents are carried as a base64 string and
// flagged with "encoding"; other readers ignore the extra field.
type envelope struct {
	Item     json.RawMessage `json:"item"`
	Stored   int64           `json:"stored"`
	TTL      int64           `json:"ttl"`
	Encoding string          `json:"encoding,omitempty"`
}

// Entry is a decoded envelope.
type Entry struct {
	Payload []byte
	Stored  time.Time
	TTL     time.Duration
}

// Expired reports whether the entry outlived its TTL at now.
func (e Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return !now.Before(e.Stored.Add(e.TTL))
}

// Encode wraps payload. When jsonItem is set and payload is valid JSON it is
// embedded verbatim, otherwise it is base64 encoded.
func Encode(payload []byte, jsonItem bool, stored time.Time, ttl time.Duration) ([]byte, error) {
	env := envelope{
		Stored: stored.UnixMilli(),
		TTL:    ttl.Milliseconds(),
	}
	if jsonItem && len(payload) > 0 && json.Valid(payload) {
		env.Item = payload
	} else {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Item = b
		env.Encoding = encodingBase64
	}
	return json.Marshal(env)
}

func Decode(b []byte) (Entry, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Entry{}, ErrCorrupt
	}
	if len(env.Item) == 0 || env.Stored == 0 {
		return Entry{}, ErrCorrupt
	}
	e := Entry{
		Stored: time.UnixMilli(env.Stored),
		TTL:    time.Duration(env.TTL) * time.Millisecond,
	}
	switch env.Encoding {
	case "":
		e.Payload = env.Item
	case encodingBase64:
		if err := json.Unmarshal(env.Item, &e.Payload); err != nil {
			return Entry{}, ErrCorrupt
		}
	default:
		return Entry{}, ErrCorrupt
	}
	return e, nil
}
