package presenter

import (
	"os"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (p *TerminalPresenter) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(!p.interactive).
		WithInput(p.input).
		WithOutput(p.output).
		WithShowHelp(p.interactive)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return errors.Wrap(err, "prompt failed")
	}
	return nil
}

// Choose asks the user to pick one of options
func (p *TerminalPresenter) Choose(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.Errorf("%s: nothing to choose from", title)
	}

	choice := options[0]
	field := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&choice)
	if err := p.run(field); err != nil {
		return "", err
	}
	return choice, nil
}

// MultiChoose asks the user to pick any number of options
func (p *TerminalPresenter) MultiChoose(title string, options, selected []string) ([]string, error) {
	preselected := make(map[string]bool, len(selected))
	for _, s := range selected {
		preselected[s] = true
	}

	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o, o).Selected(preselected[o]))
	}

	chosen := make([]string, 0, len(selected))
	for _, o := range options {
		if preselected[o] {
			chosen = append(chosen, o)
		}
	}
	field := huh.NewMultiSelect[string]().
		Title(title).
		Options(opts...).
		Value(&chosen)
	if err := p.run(field); err != nil {
		return nil, err
	}
	return chosen, nil
}

// Confirm asks a yes/no question
func (p *TerminalPresenter) Confirm(title string, defaultYes bool) (bool, error) {
	answer := defaultYes
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)
	if err := p.run(field); err != nil {
		return false, err
	}
	return answer, nil
}

// Ask reads a line of free text
func (p *TerminalPresenter) Ask(title, defaultValue string) (string, error) {
	var answer string
	field := huh.NewInput().
		Title(title).
		Placeholder(defaultValue).
		Value(&answer)
	if err := p.run(field); err != nil {
		return "", err
	}
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}
