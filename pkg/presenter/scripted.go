package presenter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrScriptExhausted is returned when a Scripted presenter runs out of answers.
var ErrScriptExhausted = errors.New("scripted presenter has no answer left")

// Message is a status line recorded by Scripted.
type Message struct {
	Level string
	Text  string
}

// Diff is a diff recorded by Scripted.
type Diff struct {
	Title string
	Lines []string
}

// Scripted is a Presenter that answers prompts from queues and records its
// output. It is used to drive commands and the reconciler without a terminal.
type Scripted struct {
	mu sync.Mutex

	// Choices answer Choose in order. An answer matches the first option it
	// is a prefix of.
	Choices      []string
	MultiChoices [][]string
	Confirms     []bool
	Answers      []string
	// CancelWaits decides, per Wait call, whether the wait is cancelled
	// immediately.
	CancelWaits []bool

	Messages []Message
	Diffs    []Diff
	// Asked records the title and options of every Choose call.
	Asked []Diff

	quiet bool
}

var _ Presenter = (*Scripted)(nil)

func (s *Scripted) record(level, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, Message{Level: level, Text: text})
}

func (s *Scripted) Error(err error, context string) {
	if err == nil {
		return
	}
	if context != "" {
		s.record("error", fmt.Sprintf("%s: %v", context, err))
		return
	}
	s.record("error", err.Error())
}

func (s *Scripted) Success(message string) { s.record("success", message) }
func (s *Scripted) Warning(message string) { s.record("warning", message) }
func (s *Scripted) Info(message string)    { s.record("info", message) }
func (s *Scripted) Section(title string)   { s.record("section", title) }
func (s *Scripted) Separator()             {}

func (s *Scripted) ShowDiff(title string, lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Diffs = append(s.Diffs, Diff{Title: title, Lines: append([]string(nil), lines...)})
}

func (s *Scripted) Choose(title string, options []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Asked = append(s.Asked, Diff{Title: title, Lines: append([]string(nil), options...)})
	if len(s.Choices) == 0 {
		return "", errors.Wrap(ErrScriptExhausted, title)
	}
	answer := s.Choices[0]
	s.Choices = s.Choices[1:]

	for _, o := range options {
		if strings.HasPrefix(o, answer) {
			return o, nil
		}
	}
	return "", errors.Errorf("%s: scripted answer %q is not one of %v", title, answer, options)
}

func (s *Scripted) MultiChoose(title string, _, selected []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.MultiChoices) == 0 {
		return selected, nil
	}
	answer := s.MultiChoices[0]
	s.MultiChoices = s.MultiChoices[1:]
	return answer, nil
}

func (s *Scripted) Confirm(title string, _ bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Confirms) == 0 {
		return false, errors.Wrap(ErrScriptExhausted, title)
	}
	answer := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return answer, nil
}

func (s *Scripted) Ask(title, defaultValue string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Answers) == 0 {
		return "", errors.Wrap(ErrScriptExhausted, title)
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}

func (s *Scripted) Wait(message string) Waiter {
	s.record("wait", message)

	s.mu.Lock()
	cancel := false
	if len(s.CancelWaits) > 0 {
		cancel = s.CancelWaits[0]
		s.CancelWaits = s.CancelWaits[1:]
	}
	s.mu.Unlock()

	signal := newCancelSignal()
	if cancel {
		signal.fire()
	}
	return &lineWaiter{signal: signal}
}

func (s *Scripted) SetQuiet(quiet bool) { s.quiet = quiet }
func (s *Scripted) IsQuiet() bool       { return s.quiet }

// HasMessage reports whether a message of the given level contains substr.
func (s *Scripted) HasMessage(level, substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.Messages {
		if m.Level == level && strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}
