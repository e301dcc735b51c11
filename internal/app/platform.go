package app

import (
	"os/exec"
	"runtime"
	"strings"
)

func detectOpener() []string {
	return detectOpenerInternal(runtime.GOOS, exec.LookPath)
}

// detectOpenerInternal finds the program that hands a URI to the desktop.
func detectOpenerInternal(goos string, lookPath func(string) (string, error)) []string {
	trySingle := func(candidates ...string) ([]string, bool) {
		for _, candidate := range candidates {
			if path, err := lookPath(candidate); err == nil && path != "" {
				return []string{path}, true
			}
		}
		return nil, false
	}

	switch {
	case strings.EqualFold(goos, "windows"):
		if path, err := lookPath("rundll32"); err == nil && path != "" {
			return []string{path, "url.dll,FileProtocolHandler"}
		}
		return nil
	case strings.EqualFold(goos, "darwin"):
		if cmd, ok := trySingle("open"); ok {
			return cmd
		}
	}

	if cmd, ok := trySingle("xdg-open", "wslview", "open"); ok {
		return cmd
	}
	return nil
}

// startDetached runs a program without waiting for it. Its output is
// discarded so it cannot disturb the screen.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
