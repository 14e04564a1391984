// Package buffer holds the source text being edited, outside of any view state.
// The UI writes to it on every edit and the session reads it once per conversion.
package buffer

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/maximbilan/esmify/internal/files"
)

// Stats are presentation-only numbers derived from the buffer
type Stats struct {
	Lines int
	Chars int
}

type Buffer struct {
	text     string
	filename string
	stats    Stats
}

func New() *Buffer {
	b := &Buffer{}
	b.recount()
	return b
}

// Write replaces the buffer unconditionally and drops the filename label
func (b *Buffer) Write(text string) {
	b.text = text
	b.filename = ""
	b.recount()
}

// Read returns the current text
func (b *Buffer) Read() string {
	return b.text
}

// Load replaces the buffer with the contents of path and labels it with the file's base name
func (b *Buffer) Load(fs afero.Fs, path string) error {
	text, err := files.Load(fs, path)
	if err != nil {
		return err
	}
	b.text = text
	b.filename = filepath.Base(strings.TrimSpace(path))
	b.recount()
	return nil
}

func (b *Buffer) Clear() {
	b.Write("")
}

// Filename is the label of the last loaded file, empty after Write or Clear
func (b *Buffer) Filename() string {
	return b.filename
}

func (b *Buffer) Stats() Stats {
	return b.stats
}

func (b *Buffer) recount() {
	b.stats = Stats{
		Lines: strings.Count(b.text, "\n") + 1,
		Chars: utf8.RuneCountInString(b.text),
	}
}
