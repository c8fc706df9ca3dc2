package shell

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }

// TerminalPassword reads a password from f without echoing it.
func TerminalPassword(f *os.File) PasswordReader {
	return func(prompt string) (string, error) {
		fmt.Fprint(os.Stdout, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stdout) // Add newline after password input
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
}
