package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteText(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteText(dir, LiveFilename, "hello there")
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if filepath.Base(path) != "live_transcription.txt" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello there" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteTextEmptyBlob(t *testing.T) {
	dir := t.TempDir()

	// Empty history exports an empty file, not an error.
	path, err := WriteText(dir, HistoryFilename, "")
	if err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}
}

func TestWriteTextCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")
	if _, err := WriteText(dir, RecordedFilename, "x"); err != nil {
		t.Fatalf("WriteText into missing dir: %v", err)
	}
}

func TestWriteRecording(t *testing.T) {
	dir := t.TempDir()

	if _, err := WriteRecording(dir, nil); err == nil {
		t.Error("expected error for empty recording")
	}

	path, err := WriteRecording(dir, []byte("fLaC..."))
	if err != nil {
		t.Fatalf("WriteRecording: %v", err)
	}
	if filepath.Base(path) != RecordingFilename {
		t.Errorf("path = %q", path)
	}
}
