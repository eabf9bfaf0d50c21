// Package store holds transcription results: the current live text, the
// current batch text, the append-only history of batch finals, and the
// user-curated saved list persisted to disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type SourceType string

const (
	SourceLive     SourceType = "live"
	SourceRecorded SourceType = "recorded"
)

type SavedTranscription struct {
	Text       string     `json:"text"`
	SourceType SourceType `json:"type"`
}

// savedKey is the single top-level key the saved list lives under in the
// data file.
const savedKey = "savedTranscriptions"

// Store is safe for concurrent use. History is append-only for the process
// lifetime; the saved list is rewritten to disk synchronously on every
// mutation.
type Store struct {
	mu      sync.Mutex
	path    string
	live    string
	batch   string
	history []string
	saved   []SavedTranscription
	subs    []chan struct{}
}

// Open loads the saved list from path. A missing or empty file is an empty
// list, not an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading saved transcriptions: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var file map[string][]SavedTranscription
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing saved transcriptions: %w", err)
	}
	s.saved = file[savedKey]
	return s, nil
}

// Subscribe returns a channel that receives a (coalesced) signal whenever
// the store changes. Notifications never block the writer.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// RecordLive replaces the current live text. Each partial supersedes the
// previous one; no merging.
func (s *Store) RecordLive(text string) {
	s.mu.Lock()
	s.live = text
	s.notifyLocked()
	s.mu.Unlock()
}

// RecordBatchFinal replaces the current batch text and appends it to the
// history.
func (s *Store) RecordBatchFinal(text string) {
	s.mu.Lock()
	s.batch = text
	s.history = append(s.history, text)
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Store) Live() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *Store) Batch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch
}

func (s *Store) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Store) Saved() []SavedTranscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SavedTranscription, len(s.saved))
	copy(out, s.saved)
	return out
}

// Save appends a copy of text to the saved list and persists synchronously.
func (s *Store) Save(text string, source SourceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, SavedTranscription{Text: text, SourceType: source})
	if err := s.persistLocked(); err != nil {
		s.saved = s.saved[:len(s.saved)-1]
		return err
	}
	s.notifyLocked()
	return nil
}

// Delete removes the saved entry at index, preserving the order of the
// remaining entries, and persists synchronously.
func (s *Store) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.saved) {
		return fmt.Errorf("saved transcription index %d out of range", index)
	}
	removed := s.saved[index]
	s.saved = append(s.saved[:index], s.saved[index+1:]...)
	if err := s.persistLocked(); err != nil {
		s.saved = append(s.saved[:index], append([]SavedTranscription{removed}, s.saved[index:]...)...)
		return err
	}
	s.notifyLocked()
	return nil
}

// ExportHistory returns all batch finals as one newline-joined blob. Empty
// history yields an empty blob.
func (s *Store) ExportHistory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.history, "\n")
}

// ExportOne returns a single transcription as a text blob.
func (s *Store) ExportOne(text string) string {
	return text
}

// persistLocked rewrites the data file atomically so a crash never leaves a
// half-written list behind.
func (s *Store) persistLocked() error {
	saved := s.saved
	if saved == nil {
		saved = []SavedTranscription{}
	}
	data, err := json.MarshalIndent(map[string][]SavedTranscription{savedKey: saved}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
