// Package display picks how converted output is rendered. Highlighting tens of
// thousands of lines on every frame is too slow, so large output falls back to
// plain text unless the user asks for highlighting anyway.
package display

import (
	"fmt"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// Threshold is the largest output, in characters, highlighted by default
const Threshold = 20000

type Mode int

const (
	Styled Mode = iota
	Plain
)

func (m Mode) String() string {
	switch m {
	case Styled:
		return "styled"
	case Plain:
		return "plain"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Select is the whole policy: short text is always styled, long text is plain
// unless overridden.
func Select(length int, override bool) Mode {
	return SelectWithThreshold(length, Threshold, override)
}

// SelectWithThreshold is Select with a configurable threshold; threshold <= 0 means Threshold
func SelectWithThreshold(length, threshold int, override bool) Mode {
	if threshold <= 0 {
		threshold = Threshold
	}
	if length <= threshold || override {
		return Styled
	}
	return Plain
}

// Length measures text the way the threshold is defined, in characters
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// State tracks the displayed text and the user's highlight override.
// The override is cleared whenever the text changes.
type State struct {
	text      string
	length    int
	threshold int
	override  bool
}

func NewState(threshold int) *State {
	if threshold <= 0 {
		threshold = Threshold
	}
	return &State{threshold: threshold}
}

func (s *State) SetText(text string) {
	if text != s.text {
		s.override = false
	}
	s.text = text
	s.length = Length(text)
}

func (s *State) Text() string {
	return s.text
}

// Large reports whether the text is over the threshold
func (s *State) Large() bool {
	return s.length > s.threshold
}

func (s *State) Override() bool {
	return s.override
}

// Toggle flips the override for large text; for small text it does nothing.
// It returns the resulting mode.
func (s *State) Toggle() Mode {
	if s.Large() {
		s.override = !s.override
	}
	return s.Mode()
}

func (s *State) Mode() Mode {
	return SelectWithThreshold(s.length, s.threshold, s.override)
}

// Banner is the notice shown while large output is rendered plain
func (s *State) Banner() string {
	if !s.Large() || s.override {
		return ""
	}
	return fmt.Sprintf("Performance Mode Active (%s chars)", humanize.Comma(int64(s.length)))
}
