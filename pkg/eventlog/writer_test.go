package eventlog

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"studio/pkg/proto"
)

func TestNewWriter(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	currentFile := writer.CurrentLogFile()
	if currentFile == "" {
		t.Error("No current log file set")
	}
	if _, err := os.Stat(currentFile); os.IsNotExist(err) {
		t.Error("Current log file does not exist")
	}
	if !strings.HasSuffix(currentFile, ".jsonl") {
		t.Errorf("Expected .jsonl log file, got %s", currentFile)
	}
}

func TestWriteMessage(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	msg := &proto.SessionStateUpdatedMsg{
		Type:    proto.MsgTypeSessionStateUpdated,
		Project: "demo",
		Session: "main",
		State:   "brainstorming",
	}
	if err := writer.WriteMessage(msg); err != nil {
		t.Fatalf("Failed to write message: %v", err)
	}

	data, err := os.ReadFile(writer.CurrentLogFile())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var decoded proto.SessionStateUpdatedMsg
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("Failed to decode logged message: %v", err)
	}
	if decoded.Type != proto.MsgTypeSessionStateUpdated {
		t.Errorf("Expected type %q, got %q", proto.MsgTypeSessionStateUpdated, decoded.Type)
	}
	if decoded.State != "brainstorming" {
		t.Errorf("Expected state %q, got %q", "brainstorming", decoded.State)
	}
}

func TestReadRawMessages(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	for _, state := range []string{"brainstorming", "draft-gate", "implementing"} {
		msg := &proto.SessionStateUpdatedMsg{
			Type:    proto.MsgTypeSessionStateUpdated,
			Project: "demo",
			Session: "main",
			State:   state,
		}
		if err := writer.WriteMessage(msg); err != nil {
			t.Fatalf("Failed to write message: %v", err)
		}
	}

	records, err := ReadRawMessages(writer.CurrentLogFile())
	if err != nil {
		t.Fatalf("Failed to read messages: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	msgType, err := proto.PeekType(records[0])
	if err != nil {
		t.Fatalf("Failed to peek record type: %v", err)
	}
	if msgType != proto.MsgTypeSessionStateUpdated {
		t.Errorf("Expected type %q, got %q", proto.MsgTypeSessionStateUpdated, msgType)
	}
}

func TestListLogFiles(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	files, err := ListLogFiles(tmpDir)
	if err != nil {
		t.Fatalf("Failed to list log files: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("Expected 1 log file, got %d", len(files))
	}
}
