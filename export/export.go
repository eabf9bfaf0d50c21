// Package export writes transcripts and recordings to files under the data
// directory, using the same fixed filenames every time.
package export

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	LiveFilename      = "live_transcription.txt"
	RecordedFilename  = "recorded_transcription.txt"
	HistoryFilename   = "past_transcriptions.txt"
	RecordingFilename = "recording.flac"
)

// WriteText writes a transcript blob to dir/filename and returns the full
// path. An existing file is overwritten.
func WriteText(dir, filename, text string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", filename, err)
	}
	return path, nil
}

// WriteRecording saves the encoded audio of the last batch attempt.
func WriteRecording(dir string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no recording to export")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, RecordingFilename)
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return "", fmt.Errorf("writing recording: %w", err)
	}
	return path, nil
}
