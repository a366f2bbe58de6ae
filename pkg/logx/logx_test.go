package logx

import (
	"strings"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("transport")
	if logger == nil {
		t.Fatal("Expected non-nil logger")
	}
	if logger.GetComponent() != "transport" {
		t.Errorf("Expected component 'transport', got %s", logger.GetComponent())
	}
}

func TestWithComponent(t *testing.T) {
	logger := NewLogger("flow")
	derived := logger.WithComponent("interact")

	if derived.GetComponent() != "interact" {
		t.Errorf("Expected derived component 'interact', got %s", derived.GetComponent())
	}
	if logger.GetComponent() != "flow" {
		t.Error("Expected original logger to keep its component")
	}
}

func TestDebugGating(t *testing.T) {
	SetDebug(false, nil)
	if IsDebugEnabled() {
		t.Error("Expected debug disabled")
	}

	SetDebug(true, nil)
	if !IsDebugEnabled() {
		t.Error("Expected debug enabled")
	}
	if !IsDebugEnabledForDomain("transport") {
		t.Error("Expected all domains enabled when no filter set")
	}

	SetDebug(true, []string{"transport"})
	if !IsDebugEnabledForDomain("transport") {
		t.Error("Expected transport domain enabled")
	}
	if IsDebugEnabledForDomain("flow") {
		t.Error("Expected flow domain disabled")
	}

	SetDebug(false, nil)
}

func TestLogBufferCapture(t *testing.T) {
	logger := NewLogger("buffer-test")
	logger.Info("session %s updated", "demo")

	entries := GetRecentLogEntries("buffer-test", time.Time{})
	if len(entries) == 0 {
		t.Fatal("Expected at least one captured entry")
	}

	last := entries[len(entries)-1]
	if last.Level != string(LevelInfo) {
		t.Errorf("Expected level INFO, got %s", last.Level)
	}
	if !strings.Contains(last.Message, "demo") {
		t.Errorf("Expected message to contain 'demo', got %q", last.Message)
	}
}

func TestErrorfReturnsError(t *testing.T) {
	err := Errorf("bad state: %s", "unknown")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "unknown") {
		t.Errorf("Expected error text to contain 'unknown', got %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Expected nil when wrapping nil error")
	}
}
