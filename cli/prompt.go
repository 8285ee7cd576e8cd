// Package cli holds the small interactive helpers used by the operator tools.
package cli

import (
	"errors"
	"io"
	"os"

	"github.com/manifoldco/promptui"
)

// Prompter asks yes/no questions on a terminal. AssumeYes short-circuits every
// question, which is what non-interactive invocations want.
type Prompter struct {
	AssumeYes bool
	Stdin     io.ReadCloser
	Stdout    io.WriteCloser
}

// DefaultPrompter talks to the process terminal.
func DefaultPrompter(assumeYes bool) *Prompter {
	return &Prompter{
		AssumeYes: assumeYes,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
	}
}

// Confirm asks the user to confirm label. Declining is not an error.
func (p *Prompter) Confirm(label string) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     p.Stdin,
		Stdout:    p.Stdout,
	}

	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// PromptConfirm asks on the process terminal.
func PromptConfirm(label string) (bool, error) {
	return DefaultPrompter(false).Confirm(label)
}
