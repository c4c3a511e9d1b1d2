package console

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

// Confirm asks a yes/no question. Anything but an explicit yes, including an
// empty answer or closed input, is a no.
func Confirm(question string) (bool, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: question + " [y/N]: ",
		Stdout: writer,
		Stderr: errWriter,
	})
	if err != nil {
		return false, err
	}
	defer rl.Close()
	response, err := rl.Readline()
	if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(response)) {
	case Yes, "yes":
		return true, nil
	default:
		return false, nil
	}
}
