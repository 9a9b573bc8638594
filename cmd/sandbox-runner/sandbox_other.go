//go:build !linux

package main

import (
	"fmt"

	"codearena/internal/exec"
)

func applyRlimits(limits exec.ResourceLimit) error {
	return nil
}

func applySeccomp() error {
	return fmt.Errorf("seccomp is only supported on linux")
}
