package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "saved_transcriptions.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenMissingFile(t *testing.T) {
	s := tempStore(t)
	if len(s.Saved()) != 0 {
		t.Errorf("expected empty saved list, got %v", s.Saved())
	}
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved_transcriptions.json")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open on empty file: %v", err)
	}
	if len(s.Saved()) != 0 {
		t.Errorf("expected empty saved list, got %v", s.Saved())
	}
}

func TestRecordLiveSupersedes(t *testing.T) {
	s := tempStore(t)
	partials := []string{"he", "hello", "hello there"}
	for _, p := range partials {
		s.RecordLive(p)
		if got := s.Live(); got != p {
			t.Errorf("Live() = %q after recording %q", got, p)
		}
	}
}

func TestRecordBatchFinalAppendsHistory(t *testing.T) {
	s := tempStore(t)

	s.RecordBatchFinal("hello world")
	if got := s.History(); !reflect.DeepEqual(got, []string{"hello world"}) {
		t.Errorf("History() = %v", got)
	}

	s.RecordBatchFinal("second take")
	got := s.History()
	if len(got) != 2 || got[1] != "second take" {
		t.Errorf("History() = %v", got)
	}
	if s.Batch() != "second take" {
		t.Errorf("Batch() = %q", s.Batch())
	}
}

func TestSaveDeleteRoundTrip(t *testing.T) {
	s := tempStore(t)
	if err := s.Save("keep me", SourceLive); err != nil {
		t.Fatal(err)
	}
	before := s.Saved()

	if err := s.Save("transient", SourceRecorded); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(1); err != nil {
		t.Fatal(err)
	}

	if got := s.Saved(); !reflect.DeepEqual(got, before) {
		t.Errorf("saved list after round trip = %v, want %v", got, before)
	}
}

func TestDeletePreservesOrder(t *testing.T) {
	s := tempStore(t)
	for _, text := range []string{"a", "b", "c"} {
		if err := s.Save(text, SourceLive); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Delete(1); err != nil {
		t.Fatal(err)
	}
	got := s.Saved()
	if len(got) != 2 || got[0].Text != "a" || got[1].Text != "c" {
		t.Errorf("Saved() = %v", got)
	}
}

func TestDeleteOutOfRange(t *testing.T) {
	s := tempStore(t)
	if err := s.Delete(0); err == nil {
		t.Error("expected error deleting from empty list")
	}
	if err := s.Delete(-1); err == nil {
		t.Error("expected error for negative index")
	}
}

func TestPersistenceAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved_transcriptions.json")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save("persisted", SourceRecorded); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Saved()
	if len(got) != 1 || got[0].Text != "persisted" || got[0].SourceType != SourceRecorded {
		t.Errorf("Saved() after reopen = %v", got)
	}
}

func TestDeletingSavedCopyKeepsHistory(t *testing.T) {
	s := tempStore(t)
	s.RecordBatchFinal("hello world")
	if err := s.Save(s.Batch(), SourceRecorded); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(0); err != nil {
		t.Fatal(err)
	}
	if got := s.History(); !reflect.DeepEqual(got, []string{"hello world"}) {
		t.Errorf("History() = %v, deletion of saved copy must not touch history", got)
	}
}

func TestExportHistory(t *testing.T) {
	s := tempStore(t)
	if got := s.ExportHistory(); got != "" {
		t.Errorf("empty history export = %q, want empty", got)
	}

	s.RecordBatchFinal("one")
	s.RecordBatchFinal("two")
	if got := s.ExportHistory(); got != "one\ntwo" {
		t.Errorf("ExportHistory() = %q", got)
	}
}

func TestSubscribe(t *testing.T) {
	s := tempStore(t)
	ch := s.Subscribe()

	s.RecordLive("hi")
	select {
	case <-ch:
	default:
		t.Error("expected notification after RecordLive")
	}

	// Coalesced: two writes, at most one pending signal, never a block.
	s.RecordLive("hi again")
	s.RecordBatchFinal("done")
	select {
	case <-ch:
	default:
		t.Error("expected notification after further writes")
	}
}
