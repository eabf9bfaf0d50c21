package main

import "voxrec/store"

// CommandType enumerates everything the display layer can ask the app to do.
type CommandType int

const (
	CmdStartLive CommandType = iota
	CmdStartBatch
	CmdStop
	CmdSaveLive
	CmdSaveRecorded
	CmdDeleteSaved
	CmdDownloadLive
	CmdDownloadRecorded
	CmdDownloadHistory
	CmdDownloadRecording
	CmdCopy
)

type Command struct {
	Type  CommandType
	Index int // saved-list index for CmdDeleteSaved
}

// Messages pushed into the TUI by the command loop and the store watcher.

// StatusMsg reflects the session state machine for display.
type StatusMsg struct {
	Status string // "idle" | "recording (live)" | "recording" | "transcribing" | "error"
	Active bool
}

// StoreMsg is a full snapshot of the result store, sent on every change.
type StoreMsg struct {
	Live    string
	Batch   string
	History []string
	Saved   []store.SavedTranscription
}

// ErrorMsg carries the single visible error notice. Cleared by the next
// successful start.
type ErrorMsg struct{ Text string }

// NoticeMsg is a transient confirmation line ("saved", "exported to ...").
type NoticeMsg struct{ Text string }
