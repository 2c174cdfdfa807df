package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	cachewrapper "github.com/holidayextras/cache-wrapper"
)

func TestErrorsBecomeNamedErrorFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Error("reconnect failed", cachewrapper.Fields{"err": errors.New("refused"), "rejected": 3})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "cachewrapper" || e.Message != "reconnect failed" {
		t.Fatalf("entry = %+v", e)
	}
	ctx := e.ContextMap()
	if ctx["err"] != "refused" || ctx["rejected"] != int64(3) {
		t.Fatalf("context = %v", ctx)
	}
}
