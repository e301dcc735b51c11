//go:build windows

package app

import "os"

func quitSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
