// Package session is the conversion state machine behind both the terminal UI
// and the headless command.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/maximbilan/esmify/internal/buffer"
	"github.com/maximbilan/esmify/internal/converter"
	"github.com/maximbilan/esmify/internal/display"
	"github.com/maximbilan/esmify/internal/fences"
	"github.com/maximbilan/esmify/internal/prompt"
)

type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// EmptyInputMessage is shown when a conversion is requested with nothing to convert
const EmptyInputMessage = "Please input some code or upload a file first."

var (
	// ErrEmptyInput is returned by Begin when the buffer is blank; no request is made
	ErrEmptyInput = errors.New("empty input")
	// ErrBusy is returned by Begin while a conversion is outstanding
	ErrBusy = errors.New("conversion already in progress")
)

// Converter performs the single outbound request
type Converter interface {
	Convert(ctx context.Context, source string) (string, error)
}

type Session struct {
	buffer  *buffer.Buffer
	client  Converter
	display *display.State
	logger  *zap.Logger

	status Status
	source string // text sent by the latest Begin
	output string
	errMsg string
	copied bool
}

// New creates an idle session. threshold <= 0 selects display.Threshold.
func New(client Converter, threshold int, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		buffer:  buffer.New(),
		client:  client,
		display: display.NewState(threshold),
		logger:  logger,
		status:  Idle,
	}
}

// Buffer pass-throughs. None of them touch status or output.

func (s *Session) Write(text string) { s.buffer.Write(text) }

func (s *Session) Read() string { return s.buffer.Read() }

func (s *Session) Load(fs afero.Fs, path string) error {
	if err := s.buffer.Load(fs, path); err != nil {
		return err
	}
	s.logger.Debug("source loaded", zap.String("file", s.buffer.Filename()), zap.Int("chars", s.buffer.Stats().Chars))
	return nil
}

func (s *Session) Clear() { s.buffer.Clear() }

func (s *Session) Filename() string { return s.buffer.Filename() }

func (s *Session) Stats() buffer.Stats { return s.buffer.Stats() }

// Begin validates the buffer and moves to Loading, returning the text to convert.
// A blank buffer sets the validation message and leaves the status alone.
func (s *Session) Begin() (string, error) {
	if s.status == Loading {
		return "", ErrBusy
	}

	source := s.buffer.Read()
	if strings.TrimSpace(source) == "" {
		s.errMsg = EmptyInputMessage
		return "", ErrEmptyInput
	}

	s.transition(Loading)
	s.source = source
	s.errMsg = ""
	s.copied = false
	s.setOutput("")
	return source, nil
}

// Finish applies the outcome of the request started by Begin.
// It is ignored unless a conversion is outstanding.
func (s *Session) Finish(result string, err error) {
	if s.status != Loading {
		return
	}

	if err != nil {
		s.fail(err)
		return
	}

	cleaned := fences.Strip(result)
	if strings.TrimSpace(cleaned) == "" {
		s.fail(converter.ErrEmptyResponse)
		return
	}

	s.setOutput(cleaned)
	s.transition(Success)
}

// Submit runs Begin, the request and Finish in one call.
// It returns the validation or conversion error, if any.
func (s *Session) Submit(ctx context.Context) error {
	source, err := s.Begin()
	if err != nil {
		return err
	}
	result, err := s.client.Convert(ctx, source)
	s.Finish(result, err)
	if err == nil && s.status == Error {
		return converter.ErrEmptyResponse
	}
	return err
}

// Dismiss returns Success or Error to Idle and clears the message. The buffer
// and output are kept. It does nothing while Loading.
func (s *Session) Dismiss() {
	if s.status == Loading {
		return
	}
	s.errMsg = ""
	if s.status != Idle {
		s.transition(Idle)
	}
}

// CanSubmit is false while a conversion is outstanding
func (s *Session) CanSubmit() bool {
	return s.status != Loading
}

func (s *Session) Status() Status { return s.status }

func (s *Session) Output() string { return s.output }

// Source is the text the current output was converted from. Later edits to
// the buffer do not change it.
func (s *Session) Source() string { return s.source }

// ErrorMessage is the text to show the user, empty when there is nothing to report
func (s *Session) ErrorMessage() string { return s.errMsg }

func (s *Session) Display() *display.State { return s.display }

// InlineDiagnostic reports whether the output is a transport error rendered as comments
func (s *Session) InlineDiagnostic() bool {
	return s.status == Success && converter.IsInlineError(s.output)
}

// HeaderInjected reports whether the output carries the compatibility header
func (s *Session) HeaderInjected() bool {
	return s.status == Success && prompt.HasCompatibilityHeader(s.output)
}

func (s *Session) Copied() bool { return s.copied }

func (s *Session) MarkCopied() { s.copied = true }

func (s *Session) ResetCopied() { s.copied = false }

func (s *Session) fail(err error) {
	s.errMsg = converter.UserMessage(err)
	s.transition(Error)
	s.logger.Warn("conversion failed", zap.Error(err))
}

func (s *Session) setOutput(text string) {
	s.output = text
	s.display.SetText(text)
}

func (s *Session) transition(to Status) {
	s.logger.Debug("status change", zap.Stringer("from", s.status), zap.Stringer("to", to))
	s.status = to
}
