package library

import (
	"fmt"
	"os"
	"os/exec"
)

// Opener hands a stored book path to something that can display it.
type Opener interface {
	Open(path string) error
}

// CommandOpener runs an external viewer with the path as its last argument.
// The viewer's output is not captured and its exit status is ignored.
type CommandOpener struct {
	Command string
	Args    []string
}

// Open starts the viewer and waits for it to exit.
func (o CommandOpener) Open(path string) error {
	if o.Command == "" {
		return fmt.Errorf("no viewer configured")
	}
	args := append(append([]string{}, o.Args...), path)
	cmd := exec.Command(o.Command, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", o.Command, err)
	}
	_ = cmd.Wait()
	return nil
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) error

func (f OpenerFunc) Open(path string) error { return f(path) }
