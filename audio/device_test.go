package audio

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// keys builds a reader that delivers each keypress as its own Read, the way
// a raw-mode terminal does.
func keys(presses ...string) io.Reader {
	readers := make([]io.Reader, len(presses))
	for i, p := range presses {
		readers[i] = bytes.NewReader([]byte(p))
	}
	return io.MultiReader(readers...)
}

const (
	arrowUp   = "\x1b[A"
	arrowDown = "\x1b[B"
	enter     = "\r"
)

func pickerDevices() []DeviceInfo {
	return []DeviceInfo{
		{ID: "0", Name: "Built-in Microphone"},
		{ID: "1", Name: "USB Microphone"},
		{ID: "2", Name: "AirPods Pro"},
	}
}

func TestPickDevice(t *testing.T) {
	cases := []struct {
		name    string
		presses []string
		want    int
	}{
		{"enter picks first", []string{enter}, 0},
		{"arrows move down", []string{arrowDown, arrowDown, enter}, 2},
		{"vim keys", []string{"j", "j", "k", enter}, 1},
		{"cursor stops at top", []string{arrowUp, arrowUp, enter}, 0},
		{"cursor stops at bottom", []string{"j", "j", "j", "j", enter}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := pickDevice(pickerDevices(), keys(tc.presses...), &out)
			if err != nil {
				t.Fatalf("pickDevice: %v", err)
			}
			if got != tc.want {
				t.Errorf("picked %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPickDeviceCancel(t *testing.T) {
	var out bytes.Buffer
	_, err := pickDevice(pickerDevices(), keys("j", "\x03"), &out)
	if !errors.Is(err, ErrSelectionAborted) {
		t.Errorf("err = %v, want ErrSelectionAborted", err)
	}
}

func TestPickDeviceInputClosed(t *testing.T) {
	var out bytes.Buffer
	_, err := pickDevice(pickerDevices(), keys(), &out)
	if err == nil {
		t.Error("expected error when input ends")
	}
}

func TestDeviceLabelFlagsBluetooth(t *testing.T) {
	label := deviceLabel(DeviceInfo{Name: "AirPods Pro"}, false)
	if !bytes.Contains([]byte(label), []byte("Lower audio quality")) {
		t.Errorf("bluetooth device not flagged: %q", label)
	}
	label = deviceLabel(DeviceInfo{Name: "USB Microphone"}, false)
	if bytes.Contains([]byte(label), []byte("Lower audio quality")) {
		t.Errorf("wired device flagged: %q", label)
	}
}
