// Package prompt asks for interactive confirmation before destructive commands.
package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("aborted")

// Confirm asks a yes/no question. An empty answer or "n" declines.
func Confirm(label string) (bool, error) {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		switch {
		case errors.Is(err, promptui.ErrInterrupt):
			return false, ErrAborted
		case errors.Is(err, promptui.ErrAbort):
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ConfirmWord requires the user to type word to proceed.
func ConfirmWord(label, word string) (bool, error) {
	p := promptui.Prompt{
		Label: fmt.Sprintf("%s (type '%s' to confirm)", label, word),
		Validate: func(input string) error {
			if input != word {
				return fmt.Errorf("type '%s' to confirm", word)
			}
			return nil
		},
	}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return false, ErrAborted
		}
		return false, err
	}
	return true, nil
}

// ConfirmUnlessForced skips the prompt when force is set.
func ConfirmUnlessForced(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label)
}
