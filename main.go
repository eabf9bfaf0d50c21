package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"voxrec/audio"
	"voxrec/clipboard"
	"voxrec/config"
	"voxrec/export"
	"voxrec/log"
	"voxrec/session"
	"voxrec/store"
	"voxrec/transcriber"
)

const savedFilename = "saved_transcriptions.json"

func main() {
	logPath := flag.String("logpath", "", "directory for diagnostic logs")
	wavPath := flag.String("wav", "", "replay a 16kHz mono WAV file instead of capturing")
	flag.Parse()

	if err := run(*logPath, *wavPath); err != nil {
		fmt.Fprintln(os.Stderr, "voxrec:", err)
		os.Exit(1)
	}
}

func run(logPath, wavPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logDir, err := log.ResolveDir(logPath)
	if err != nil {
		return fmt.Errorf("resolving log directory: %w", err)
	}
	log.SetDir(logDir)
	if err := log.Init(); err != nil {
		return fmt.Errorf("initializing logs: %w", err)
	}
	defer log.Close()
	log.Infof("voxrec starting, data dir %s", cfg.DataDir)

	actx, dev, err := openAudio(wavPath)
	if err != nil {
		return err
	}
	defer actx.Close()

	st, err := store.Open(filepath.Join(cfg.DataDir, savedFilename))
	if err != nil {
		return err
	}

	client := transcriber.NewDeepgram(cfg.DeepgramKey, cfg.Language)
	go client.WarmConnection()

	cmds := make(chan Command, 8)
	p := newTUIProgram(cmds)

	mgr := session.New(session.Config{
		Audio:  actx,
		Device: dev,
		Client: client,
		Sink:   st,
		OnError: func(err error) {
			p.Send(ErrorMsg{Text: err.Error()})
			p.Send(StatusMsg{Status: "error", Active: false})
		},
	})

	go watchStore(p, st)
	go commandLoop(p, cmds, mgr, st, cfg.DataDir)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	// Quit while recording still releases the device cleanly.
	if err := mgr.Stop(context.Background()); err != nil {
		log.Errorf("stop on shutdown: %v", err)
	}
	log.Info("voxrec exiting")
	return nil
}

// openAudio builds the capture backend: the real one, or a WAV replay for
// testing transcription without a microphone.
func openAudio(wavPath string) (audio.Context, *audio.DeviceInfo, error) {
	if wavPath != "" {
		actx, err := audio.NewFakeContext(wavPath, true)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", wavPath, err)
		}
		return actx, nil, nil
	}

	actx, err := audio.NewContext()
	if err != nil {
		return nil, nil, fmt.Errorf("initializing audio: %w", err)
	}
	dev, err := audio.SelectDevice(actx)
	if err != nil {
		actx.Close()
		return nil, nil, err
	}
	return actx, dev, nil
}

func snapshot(st *store.Store) StoreMsg {
	return StoreMsg{
		Live:    st.Live(),
		Batch:   st.Batch(),
		History: st.History(),
		Saved:   st.Saved(),
	}
}

// watchStore forwards every store change to the display as a full snapshot.
func watchStore(p *tea.Program, st *store.Store) {
	sub := st.Subscribe()
	p.Send(snapshot(st))
	for range sub {
		p.Send(snapshot(st))
	}
}

// commandLoop executes display commands one at a time. A batch Stop blocks
// here for the duration of the upload; the display keeps rendering and shows
// "transcribing" until the final arrives.
func commandLoop(p *tea.Program, cmds <-chan Command, mgr *session.Manager, st *store.Store, dataDir string) {
	ctx := context.Background()

	for cmd := range cmds {
		switch cmd.Type {
		case CmdStartLive:
			if err := mgr.Start(ctx, session.ModeLive); err != nil {
				reportErr(p, err)
				continue
			}
			p.Send(StatusMsg{Status: "recording (live)", Active: true})

		case CmdStartBatch:
			if err := mgr.Start(ctx, session.ModeBatch); err != nil {
				reportErr(p, err)
				continue
			}
			p.Send(StatusMsg{Status: "recording", Active: true})

		case CmdStop:
			if mgr.State() == session.StateUploading {
				p.Send(StatusMsg{Status: "transcribing", Active: true})
			}
			if err := mgr.Stop(ctx); err != nil {
				reportErr(p, err)
				p.Send(StatusMsg{Status: "error", Active: false})
				continue
			}
			p.Send(StatusMsg{Status: "idle", Active: false})

		case CmdSaveLive:
			saveText(p, st, st.Live(), store.SourceLive)

		case CmdSaveRecorded:
			saveText(p, st, st.Batch(), store.SourceRecorded)

		case CmdDeleteSaved:
			if err := st.Delete(cmd.Index); err != nil {
				reportErr(p, err)
			}

		case CmdDownloadLive:
			exportText(p, dataDir, export.LiveFilename, st.Live())

		case CmdDownloadRecorded:
			exportText(p, dataDir, export.RecordedFilename, st.Batch())

		case CmdDownloadHistory:
			exportText(p, dataDir, export.HistoryFilename, st.ExportHistory())

		case CmdDownloadRecording:
			path, err := export.WriteRecording(dataDir, mgr.LastRecording())
			if err != nil {
				reportErr(p, err)
				continue
			}
			p.Send(NoticeMsg{Text: "recording saved to " + path})

		case CmdCopy:
			copyTranscript(p, st)
		}
	}
}

func reportErr(p *tea.Program, err error) {
	log.Errorf("command failed: %v", err)
	p.Send(ErrorMsg{Text: err.Error()})
}

func saveText(p *tea.Program, st *store.Store, text string, source store.SourceType) {
	if text == "" {
		p.Send(NoticeMsg{Text: "nothing to save"})
		return
	}
	if err := st.Save(text, source); err != nil {
		reportErr(p, err)
		return
	}
	p.Send(NoticeMsg{Text: "saved"})
}

func exportText(p *tea.Program, dataDir, filename, text string) {
	path, err := export.WriteText(dataDir, filename, text)
	if err != nil {
		reportErr(p, err)
		return
	}
	p.Send(NoticeMsg{Text: "saved to " + path})
}

// copyTranscript puts the most recent transcript on the clipboard: live text
// if present, the batch final otherwise.
func copyTranscript(p *tea.Program, st *store.Store) {
	if !clipboard.Available() {
		p.Send(NoticeMsg{Text: "clipboard unavailable on this system"})
		return
	}
	text := st.Live()
	if text == "" {
		text = st.Batch()
	}
	if text == "" {
		p.Send(NoticeMsg{Text: "nothing to copy"})
		return
	}
	if err := clipboard.Copy(text); err != nil {
		reportErr(p, err)
		return
	}
	p.Send(NoticeMsg{Text: "copied to clipboard"})
}
