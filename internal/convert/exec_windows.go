// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build windows

package convert

import (
	"os/exec"
	"syscall"
)

// createNoWindow keeps pandoc and the TeX engine from flashing a console.
const createNoWindow = 0x08000000

func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true, CreationFlags: createNoWindow}
}
