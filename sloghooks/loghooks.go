// Package sloghooks reports cachewrapper events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	cachewrapper "github.com/holidayextras/cache-wrapper"
)

type Options struct {
	// Sampling to avoid floods during an outage; 0/1 = log all.
	QueuedEvery   uint64
	DropFailEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	queuedCtr   atomic.Uint64
	dropFailCtr atomic.Uint64
}

var _ cachewrapper.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RequestQueued(id string, op cachewrapper.Op, segment string, depth int) {
	if h.l == nil || !sample(h.opts.QueuedEvery, &h.queuedCtr) {
		return
	}
	h.l.Debug("cachewrapper.request_queued",
		"entry", id,
		"op", string(op),
		"segment", segment,
		"depth", depth)
}

func (h *Hooks) ReconnectStarted() {
	if h.l == nil {
		return
	}
	h.l.Info("cachewrapper.reconnect_started")
}

func (h *Hooks) ReconnectFinished(settled int, err error) {
	if h.l == nil {
		return
	}
	if err != nil {
		h.l.Error("cachewrapper.reconnect_failed",
			"rejected", settled,
			"err", err)
		return
	}
	h.l.Info("cachewrapper.reconnected",
		"replayed", settled)
}

func (h *Hooks) ScanFailed(namespace string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachewrapper.scan_failed",
		"ns", namespace,
		"err", err)
}

func (h *Hooks) DropFailed(storageKey string, err error) {
	if h.l == nil || !sample(h.opts.DropFailEvery, &h.dropFailCtr) {
		return
	}
	h.l.Warn("cachewrapper.drop_failed",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) DecodeFailed(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachewrapper.decode_failed",
		"key", h.redact(storageKey),
		"err", err)
}
