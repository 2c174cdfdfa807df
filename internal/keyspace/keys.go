// Package keyspace builds and parses the storage keys shared with other
// clients of the same store.
//
// Layout:
//
//	<partition>:<escape(segment)>:<escape(key)>
//
// escape follows ECMAScript encodeURIComponent byte for byte so keys written by
// older (catbox based) writers resolve to the same storage key.
package keyspace

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	// Separator joins partition, segment and key.
	Separator = ":"
	// Wildcard is the glob suffix used by prefix scans.
	Wildcard = "*"
)

const upperhex = "0123456789ABCDEF"

// unreserved reports whether encodeURIComponent leaves c as is.
func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// Escape percent-encodes s the way encodeURIComponent does for valid UTF-8.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// ErrInvalidUTF8 is returned by Unescape when the decoded bytes are not
// valid UTF-8, which decodeURIComponent rejects too.
var ErrInvalidUTF8 = errors.New("keyspace: escaped key is not valid UTF-8")

// Unescape reverses Escape. '+' is kept literally.
func Unescape(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", ErrInvalidUTF8
	}
	return out, nil
}

// Namespace returns the storage prefix owning every key of segment.
func Namespace(partition, segment string) string {
	return partition + Separator + Escape(segment) + Separator
}

// StorageKey returns the storage key for a user key inside segment.
func StorageKey(partition, segment, key string) string {
	return Namespace(partition, segment) + Escape(key)
}

// Pattern returns the glob matching every storage key of segment whose user
// key starts with prefix. '*' survives Escape, so it is glob-escaped here to
// stay literal.
func Pattern(partition, segment, prefix string) string {
	return QuoteGlob(Namespace(partition, segment)) + QuoteGlob(Escape(prefix)) + Wildcard
}

// UserKey strips the namespace from a storage key and decodes what remains.
// ok is false when storageKey is outside namespace.
func UserKey(namespace, storageKey string) (key string, ok bool, err error) {
	rest, found := strings.CutPrefix(storageKey, namespace)
	if !found {
		return "", false, nil
	}
	key, err = Unescape(rest)
	if err != nil {
		return "", true, err
	}
	return key, true, nil
}
