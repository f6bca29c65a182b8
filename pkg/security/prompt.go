package security

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// ReadSecret prompts on stderr and reads a line from the terminal without echo.
// It is a variable so tests can substitute it.
var ReadSecret = func(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("input cannot be empty")
	}
	return secret, nil
}
