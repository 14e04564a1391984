package display

import (
	"strings"
	"testing"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		override bool
		want     Mode
	}{
		{name: "empty", length: 0, override: false, want: Styled},
		{name: "small", length: 100, override: false, want: Styled},
		{name: "small with override", length: 100, override: true, want: Styled},
		{name: "exactly threshold", length: Threshold, override: false, want: Styled},
		{name: "one over threshold", length: Threshold + 1, override: false, want: Plain},
		{name: "one over threshold with override", length: Threshold + 1, override: true, want: Styled},
		{name: "huge", length: 2_000_000, override: false, want: Plain},
		{name: "huge with override", length: 2_000_000, override: true, want: Styled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Select(tt.length, tt.override); got != tt.want {
				t.Errorf("Select(%d, %v) = %v, want %v", tt.length, tt.override, got, tt.want)
			}
			// pure: same inputs, same answer
			if got := Select(tt.length, tt.override); got != tt.want {
				t.Errorf("Select(%d, %v) second call = %v", tt.length, tt.override, got)
			}
		})
	}
}

func TestSelectWithThreshold(t *testing.T) {
	if got := SelectWithThreshold(11, 10, false); got != Plain {
		t.Errorf("SelectWithThreshold(11, 10) = %v, want plain", got)
	}
	if got := SelectWithThreshold(Threshold, 0, false); got != Styled {
		t.Errorf("SelectWithThreshold with zero threshold should use default, got %v", got)
	}
}

func TestLengthCountsCharacters(t *testing.T) {
	if got := Length("世界"); got != 2 {
		t.Errorf("Length() = %d, want 2", got)
	}
}

func TestStateOverrideResetsOnNewText(t *testing.T) {
	s := NewState(0)
	large := strings.Repeat("x", Threshold+1)

	s.SetText(large)
	if s.Mode() != Plain {
		t.Fatalf("Mode() = %v, want plain for large text", s.Mode())
	}
	if got := s.Toggle(); got != Styled {
		t.Fatalf("Toggle() = %v, want styled", got)
	}
	if !s.Override() {
		t.Fatal("Override() = false after Toggle")
	}

	// same text: override survives
	s.SetText(large)
	if !s.Override() {
		t.Error("Override() reset although text did not change")
	}

	s.SetText(large + "y")
	if s.Override() {
		t.Error("Override() not reset after text changed")
	}
	if s.Mode() != Plain {
		t.Errorf("Mode() = %v, want plain after reset", s.Mode())
	}

	if got := s.Toggle(); got != Styled {
		t.Errorf("Toggle() = %v, want styled", got)
	}
	if got := s.Toggle(); got != Plain {
		t.Errorf("second Toggle() = %v, want plain", got)
	}
}

func TestStateToggleIgnoredForSmallText(t *testing.T) {
	s := NewState(0)
	s.SetText("import x from 'a';\n")

	if got := s.Toggle(); got != Styled {
		t.Errorf("Toggle() = %v, want styled", got)
	}
	if s.Override() {
		t.Error("Override() set for small text")
	}
	if s.Large() {
		t.Error("Large() = true for small text")
	}
}

func TestStateBanner(t *testing.T) {
	s := NewState(0)
	s.SetText("small")
	if got := s.Banner(); got != "" {
		t.Errorf("Banner() = %q for small text", got)
	}

	s.SetText(strings.Repeat("a", 45000))
	if got := s.Banner(); got != "Performance Mode Active (45,000 chars)" {
		t.Errorf("Banner() = %q", got)
	}

	s.Toggle()
	if got := s.Banner(); got != "" {
		t.Errorf("Banner() = %q while highlighting is forced", got)
	}
}

func TestRender(t *testing.T) {
	r := NewRenderer("monokai")
	code := "import x from 'a';\nconst y = 1;\n"

	if got := r.Render(Plain, code); got != code {
		t.Errorf("Render(Plain) = %q, want input unchanged", got)
	}

	styled := r.Render(Styled, code)
	if !strings.Contains(styled, "\x1b[") {
		t.Errorf("Render(Styled) has no ANSI escapes: %q", styled)
	}
	if !strings.Contains(styled, "import") || !strings.Contains(styled, "const") {
		t.Errorf("Render(Styled) lost tokens: %q", styled)
	}

	if got := r.Render(Styled, ""); got != "" {
		t.Errorf("Render(Styled, \"\") = %q", got)
	}
}

func TestRenderUnknownStyleFallsBack(t *testing.T) {
	r := NewRenderer("no-such-style")
	if got := r.Render(Styled, "let a = 1;"); !strings.Contains(got, "let") {
		t.Errorf("Render() with unknown style = %q", got)
	}
}

func TestModeString(t *testing.T) {
	if Styled.String() != "styled" || Plain.String() != "plain" {
		t.Errorf("Mode strings = %q, %q", Styled, Plain)
	}
}
