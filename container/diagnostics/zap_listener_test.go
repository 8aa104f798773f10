package diagnostics_test

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/ioc/container"
	"github.com/km-arc/ioc/container/diagnostics"
)

func TestZapListener_IsEnabledReflectsFlagAndLogger(t *testing.T) {
	core, _ := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	listener := diagnostics.NewZapListener(log, false)
	if listener.IsEnabled() {
		t.Error("IsEnabled(): got true, want false before SetEnabled")
	}

	listener.SetEnabled(true)
	if !listener.IsEnabled() {
		t.Error("IsEnabled(): got false, want true after SetEnabled(true)")
	}

	if diagnostics.NewZapListener(nil, true).IsEnabled() {
		t.Error("IsEnabled(): got true for a nil logger, want false")
	}
}

func TestZapListener_WritesWarnOnError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	listener := diagnostics.NewZapListener(log, true)

	svc := container.TypedOf[int]()
	listener.Write(container.EventOperationFailure, container.OperationEvent{Service: svc, Err: errors.New("boom")})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries: got %d, want 1", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("log level: got %v, want Warn", entries[0].Level)
	}
}

func TestZapListener_WritesDebugOnSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	listener := diagnostics.NewZapListener(log, true)

	svc := container.TypedOf[int]()
	listener.Write(container.EventOperationSuccess, container.OperationEvent{Service: svc})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries: got %d, want 1", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("log level: got %v, want Debug", entries[0].Level)
	}
}
