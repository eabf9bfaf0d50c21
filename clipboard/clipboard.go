// Package clipboard copies transcription text to the system clipboard.
package clipboard

import cb "github.com/atotto/clipboard"

func Copy(text string) error {
	return cb.WriteAll(text)
}

// Available reports whether a clipboard backend exists on this system.
func Available() bool {
	return !cb.Unsupported
}
