//go:build !unix

package build

import (
	"os"
	"os/exec"
)

func startGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Kill)
	}
}

func killGroup(cmd *exec.Cmd) {}
