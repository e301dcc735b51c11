//go:build !windows && !plan9 && !js && !wasip1

package term

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"
)

// Probe checks that the terminal behind f understands kitty graphics. It
// must run before tcell takes over the terminal.
func Probe(f *os.File, timeout time.Duration) error {
	fd := int(f.Fd())
	state, err := xterm.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("probing graphics support: %w", err)
	}
	defer func() {
		_ = xterm.Restore(fd, state)
	}()

	if _, err := f.WriteString(probeQuery); err != nil {
		return fmt.Errorf("probing graphics support: %w", err)
	}

	deadline := time.Now().Add(timeout)
	var reply []byte
	chunk := make([]byte, 256)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: no reply within %s", ErrGraphicsUnsupported, timeout)
		}
		var readfds unix.FdSet
		readfds.Set(fd)
		tv := unix.NsecToTimeval(remaining.Nanoseconds())
		n, err := unix.Select(fd+1, &readfds, nil, nil, &tv)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("probing graphics support: %w", err)
		}
		if n == 0 || !readfds.IsSet(fd) {
			continue
		}
		m, err := f.Read(chunk)
		if err != nil {
			return fmt.Errorf("probing graphics support: %w", err)
		}
		reply = append(reply, chunk[:m]...)
		if done, ok := probeReply(reply); done {
			if !ok {
				return ErrGraphicsUnsupported
			}
			return nil
		}
	}
}
