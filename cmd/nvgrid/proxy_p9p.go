//go:build !plan9

package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// shutdownSignals are the OS signals that trigger a clean exit.
var shutdownSignals = []os.Signal{os.Interrupt, unix.SIGTERM, unix.SIGHUP}

// ninepserve is the plan9port multiplexer run by listen.
var ninepserve = "9pserve"

// listen removes any stale socket, forks 9pserve announcing at
// unix!srvPath, and returns our end of a socketpair.  9pserve multiplexes
// client connections onto it.  cleanup closes our end and reaps 9pserve.
func listen(srvPath string) (io.ReadWriteCloser, func(), error) {
	os.Remove(srvPath)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}
	// x/sys/unix has no SOCK_CLOEXEC on darwin.  dup2 onto 9pserve's stdio
	// clears the flag on the copies it keeps.
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	parent := os.NewFile(uintptr(fds[0]), "nvgrid-srv")
	child := os.NewFile(uintptr(fds[1]), "nvgrid-9pserve")

	cmd := exec.Command(ninepserve, "unix!"+srvPath)
	cmd.Stdin = child
	cmd.Stdout = child
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		parent.Close()
		child.Close()
		return nil, nil, fmt.Errorf("%s: %w", ninepserve, err)
	}
	child.Close()

	cleanup := func() {
		parent.Close() // 9pserve sees EOF and exits
		cmd.Wait()     //nolint:errcheck
	}
	return parent, cleanup, nil
}
