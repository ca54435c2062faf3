// Package presenter provides the user-facing side of skillchef: status
// messages, colored diffs, interactive prompts and a cancellable wait
// indicator. Commands and the sync reconciler talk to the user only through
// the Presenter interface so that they can be driven by a script in tests.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// ErrAborted is returned by prompts the user interrupted.
var ErrAborted = errors.New("aborted by user")

// Reporter prints status output
type Reporter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Separator()
	// ShowDiff prints unified diff lines under a title.
	ShowDiff(title string, lines []string)
}

// Prompter asks the user for decisions
type Prompter interface {
	// Choose returns the selected option.
	Choose(title string, options []string) (string, error)
	// MultiChoose returns the selected options; selected are preselected.
	MultiChoose(title string, options, selected []string) ([]string, error)
	Confirm(title string, defaultYes bool) (bool, error)
	// Ask returns free text, or defaultValue if the answer is empty.
	Ask(title, defaultValue string) (string, error)
}

// Waiter is a running wait indicator.
type Waiter interface {
	// Cancelled is closed when the user asks to stop waiting.
	Cancelled() <-chan struct{}
	// Stop removes the indicator. It is safe to call more than once.
	Stop()
}

// Presenter defines the interface for consistent CLI interaction
type Presenter interface {
	Reporter
	Prompter
	// Wait shows message until the returned Waiter is stopped.
	Wait(message string) Waiter
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	input       io.Reader
	colorMode   ColorMode
	quiet       bool
	interactive bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colored output based on terminal capabilities
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities
	ColorAlways
	// ColorNever disables colored output regardless of terminal capabilities
	ColorNever
)

// New creates a new TerminalPresenter with default settings
func New() *TerminalPresenter {
	p := NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
	p.input = os.Stdin
	p.interactive = isTerminal(os.Stdin) && isTerminal(os.Stdout)
	return p
}

// NewWithOptions creates a TerminalPresenter with custom settings. Prompts
// read from stdin in accessible (line based) mode.
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	presenter := &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		input:       os.Stdin,
		colorMode:   colorMode,
	}

	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
	}

	return presenter
}

// WithInput sets the reader prompts read from.
func (p *TerminalPresenter) WithInput(r io.Reader) *TerminalPresenter {
	p.input = r
	return p
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("SKILLCHEF_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error displays an error message to stderr
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

// Warning displays a warning message
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.output, "⚠ %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header with consistent formatting
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	headerColor := color.New(color.Bold)
	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Separator displays a visual separator
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	color.New(color.Faint).Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

// ShowDiff prints a unified diff with added lines in green, removed lines in
// red and hunk headers in cyan. An empty diff prints "(no changes)".
func (p *TerminalPresenter) ShowDiff(title string, lines []string) {
	if p.quiet {
		return
	}
	if title != "" {
		color.New(color.Bold).Fprintf(p.output, "%s\n", title)
	}
	if len(lines) == 0 {
		color.New(color.Faint).Fprintln(p.output, "(no changes)")
		return
	}

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	header := color.New(color.Bold)

	for _, line := range lines {
		text := strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			header.Fprintln(p.output, text)
		case strings.HasPrefix(text, "@@"):
			hunk.Fprintln(p.output, text)
		case strings.HasPrefix(text, "+"):
			added.Fprintln(p.output, text)
		case strings.HasPrefix(text, "-"):
			removed.Fprintln(p.output, text)
		default:
			fmt.Fprintln(p.output, text)
		}
	}
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter = New()

// Default returns the process-wide terminal presenter.
func Default() *TerminalPresenter {
	return defaultPresenter
}

// Error displays an error message using the default presenter instance.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

// Success displays a success message using the default presenter instance.
func Success(message string) {
	defaultPresenter.Success(message)
}

// Warning displays a warning message using the default presenter instance.
func Warning(message string) {
	defaultPresenter.Warning(message)
}

// Info displays an informational message using the default presenter instance.
func Info(message string) {
	defaultPresenter.Info(message)
}

// Section displays a section header using the default presenter instance.
func Section(title string) {
	defaultPresenter.Section(title)
}
