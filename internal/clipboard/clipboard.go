// Package clipboard moves converted code to and from the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard utility (xclip, xsel, wl-copy, ...) exists
var ErrUnavailable = errors.New("clipboard is not available on this system")

func Available() bool {
	return !clipboard.Unsupported
}

// Paste returns the clipboard text, which is the source in `convert --from-clipboard`
func Paste() (string, error) {
	if !Available() {
		return "", ErrUnavailable
	}
	return clipboard.ReadAll()
}

// Copy places converted output on the clipboard
func Copy(code string) error {
	if !Available() {
		return ErrUnavailable
	}
	return clipboard.WriteAll(code)
}
