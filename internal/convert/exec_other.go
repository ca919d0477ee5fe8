// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !windows

package convert

import "os/exec"

func hideWindow(*exec.Cmd) {}
