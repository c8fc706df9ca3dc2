package library

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandOpener(t *testing.T) {
	assert.Error(t, CommandOpener{}.Open("/tmp/x.pdf"))
	assert.Error(t, CommandOpener{Command: "definitely-not-a-viewer-binary"}.Open("/tmp/x.pdf"))

	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no 'true' binary on PATH")
	}
	// Exit status of the viewer is not interpreted.
	assert.NoError(t, CommandOpener{Command: "true"}.Open("/tmp/x.pdf"))
	assert.NoError(t, CommandOpener{Command: "false"}.Open("/tmp/x.pdf"))
}
