package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrSelectionAborted is returned when the user cancels the device picker.
var ErrSelectionAborted = errors.New("device selection aborted")

// SelectDevice picks the capture device to record from. A single device is
// chosen without prompting; more than one brings up an interactive list on
// the terminal.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, fmt.Errorf("no capture devices found")
	case 1:
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	idx, err := pickDevice(devices, os.Stdin, os.Stdout)
	if err != nil {
		return nil, err
	}
	return &devices[idx], nil
}

type pickerKey int

const (
	keyOther pickerKey = iota
	keyUp
	keyDown
	keyEnter
	keyCancel
)

// readPickerKey decodes one keypress from a raw-mode terminal. Arrow keys
// arrive as three-byte escape sequences; j/k work as aliases.
func readPickerKey(in io.Reader) (pickerKey, error) {
	buf := make([]byte, 3)
	n, err := in.Read(buf)
	if err != nil {
		return keyOther, err
	}
	if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
		switch buf[2] {
		case 'A':
			return keyUp, nil
		case 'B':
			return keyDown, nil
		}
		return keyOther, nil
	}
	if n >= 1 {
		switch buf[0] {
		case '\r', '\n':
			return keyEnter, nil
		case 0x03, 'q': // Ctrl+C
			return keyCancel, nil
		case 'k':
			return keyUp, nil
		case 'j':
			return keyDown, nil
		}
	}
	return keyOther, nil
}

func deviceLabel(d DeviceInfo, selected bool) string {
	var b strings.Builder
	if selected {
		b.WriteString("  \x1b[1;36m▶ ")
	} else {
		b.WriteString("    ")
	}
	b.WriteString(d.Name)
	if selected {
		b.WriteString("\x1b[0m")
	}
	if IsBluetooth(d.Name) {
		b.WriteString(" \x1b[33m[⚠ Lower audio quality]\x1b[0m")
	}
	return b.String()
}

// pickDevice runs the selection loop over an arbitrary reader/writer pair so
// the key handling is testable without a terminal. Returns the chosen index.
func pickDevice(devices []DeviceInfo, in io.Reader, out io.Writer) (int, error) {
	render := func(cursor int, first bool) {
		if !first {
			// Move back over the previously drawn list.
			fmt.Fprintf(out, "\x1b[%dA", len(devices)+2)
		}
		fmt.Fprint(out, "\r\x1b[J")
		fmt.Fprint(out, "Select input device (↑/↓, Enter to confirm):\r\n\r\n")
		for i, d := range devices {
			fmt.Fprintf(out, "%s\r\n", deviceLabel(d, i == cursor))
		}
	}

	cursor := 0
	render(cursor, true)
	for {
		key, err := readPickerKey(in)
		if err != nil {
			return 0, fmt.Errorf("reading input: %w", err)
		}
		switch key {
		case keyEnter:
			fmt.Fprint(out, "\r\n")
			return cursor, nil
		case keyCancel:
			fmt.Fprint(out, "\r\n")
			return 0, ErrSelectionAborted
		case keyUp:
			if cursor > 0 {
				cursor--
			}
		case keyDown:
			if cursor < len(devices)-1 {
				cursor++
			}
		}
		render(cursor, false)
	}
}
