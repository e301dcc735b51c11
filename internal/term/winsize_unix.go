//go:build !windows && !plan9 && !js && !wasip1

package term

import "golang.org/x/sys/unix"

func windowSize(fd int) (cols, rows, xpix, ypix int, err error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return int(ws.Col), int(ws.Row), int(ws.Xpixel), int(ws.Ypixel), nil
}
