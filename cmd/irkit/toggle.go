package main

import (
	"fmt"
	"os"
	"strings"
)

type toggle string

const (
	toggleAuto toggle = "auto"
	toggleOnly toggle = "on"
	toggleOff  toggle = "off"
)

func readToggle(flag, value string) (toggle, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return toggleAuto, nil
	case "on", "always":
		return toggleOnly, nil
	case "off", "never":
		return toggleOff, nil
	default:
		return "", fmt.Errorf("invalid %s value %q (expected auto|on|off)", flag, value)
	}
}

// toggleOn resolves auto by asking whether f is a terminal.
func toggleOn(mode toggle, f *os.File) bool {
	switch mode {
	case toggleOnly:
		return true
	case toggleOff:
		return false
	default:
		return isTerminal(f)
	}
}
