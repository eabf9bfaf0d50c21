package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"voxrec/store"
)

func keyMsg(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	panic("unknown key " + s)
}

func TestKeysIssueCommands(t *testing.T) {
	cmds := make(chan Command, 8)
	m := tuiModel{cmds: cmds}

	cases := []struct {
		key  string
		want CommandType
	}{
		{"l", CmdStartLive},
		{"r", CmdStartBatch},
		{"s", CmdStop},
		{"L", CmdSaveLive},
		{"R", CmdSaveRecorded},
		{"c", CmdCopy},
		{"1", CmdDownloadLive},
		{"2", CmdDownloadRecorded},
		{"3", CmdDownloadHistory},
		{"4", CmdDownloadRecording},
	}
	for _, tc := range cases {
		m.Update(keyMsg(tc.key))
		select {
		case got := <-cmds:
			if got.Type != tc.want {
				t.Errorf("key %q: command %v, want %v", tc.key, got.Type, tc.want)
			}
		default:
			t.Errorf("key %q: no command issued", tc.key)
		}
	}
}

func TestDeleteUsesCursor(t *testing.T) {
	cmds := make(chan Command, 8)
	m := tuiModel{cmds: cmds}

	updated, _ := m.Update(StoreMsg{Saved: []store.SavedTranscription{
		{Text: "a", SourceType: store.SourceLive},
		{Text: "b", SourceType: store.SourceRecorded},
		{Text: "c", SourceType: store.SourceLive},
	}})
	m = updated.(tuiModel)

	updated, _ = m.Update(keyMsg("down"))
	m = updated.(tuiModel)
	updated, _ = m.Update(keyMsg("down"))
	m = updated.(tuiModel)

	m.Update(keyMsg("x"))
	select {
	case got := <-cmds:
		if got.Type != CmdDeleteSaved || got.Index != 2 {
			t.Errorf("got %+v, want delete at index 2", got)
		}
	default:
		t.Fatal("no command issued")
	}
}

func TestDeleteIgnoredWhenEmpty(t *testing.T) {
	cmds := make(chan Command, 1)
	m := tuiModel{cmds: cmds}

	m.Update(keyMsg("x"))
	select {
	case got := <-cmds:
		t.Errorf("unexpected command %+v", got)
	default:
	}
}

func TestCursorClampsAfterShrink(t *testing.T) {
	m := tuiModel{}

	updated, _ := m.Update(StoreMsg{Saved: []store.SavedTranscription{
		{Text: "a"}, {Text: "b"}, {Text: "c"},
	}})
	m = updated.(tuiModel)
	updated, _ = m.Update(keyMsg("down"))
	m = updated.(tuiModel)
	updated, _ = m.Update(keyMsg("down"))
	m = updated.(tuiModel)
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}

	updated, _ = m.Update(StoreMsg{Saved: []store.SavedTranscription{{Text: "a"}}})
	m = updated.(tuiModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after shrink, want 0", m.cursor)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllø wörld ünïcode", 10, "héllø w..."},
		{"日本語のテキストです", 6, "日本語..."},
		{"ab", 2, "ab"},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.max)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestActiveStatusClearsErrorNotice(t *testing.T) {
	m := tuiModel{}

	updated, _ := m.Update(ErrorMsg{Text: "boom"})
	m = updated.(tuiModel)
	if m.errNotice != "boom" {
		t.Fatalf("errNotice = %q", m.errNotice)
	}

	// An inactive status (stop, error) keeps the notice visible.
	updated, _ = m.Update(StatusMsg{Status: "error", Active: false})
	m = updated.(tuiModel)
	if m.errNotice == "" {
		t.Error("notice cleared by inactive status")
	}

	updated, _ = m.Update(StatusMsg{Status: "recording", Active: true})
	m = updated.(tuiModel)
	if m.errNotice != "" {
		t.Errorf("errNotice = %q after successful start, want empty", m.errNotice)
	}
}
