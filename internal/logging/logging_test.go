package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New("warn", false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info to be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected error to be enabled")
	}

	if _, err := New("debug", true); err != nil {
		t.Fatalf("new dev: %v", err)
	}
	if _, err := New("loud", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
