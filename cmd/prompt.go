package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

const backupPrompt = "This will write to your org-roam files. Make sure you have a backup. Continue? [y/N] "

type prompter interface {
	Prompt(prompt string) (string, error)
}

// confirm asks for the backup confirmation on the terminal. Redirected stdin
// is read line by line.
func confirm() (bool, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	return ask(line)
}

func ask(p prompter) (bool, error) {
	answer, err := p.Prompt(backupPrompt)
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return confirmed(answer), nil
}

// confirmed reports whether answer is exactly "y". Anything else, including
// "Y" and "yes", declines.
func confirmed(answer string) bool {
	return strings.TrimRight(answer, "\r\n") == "y"
}
