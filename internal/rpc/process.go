package rpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/multierr"
)

type pipe struct {
	io.ReadCloser
	io.WriteCloser
}

func (p pipe) Close() error {
	return multierr.Append(p.WriteCloser.Close(), p.ReadCloser.Close())
}

// Spawn starts the editor binary with --embed and args and returns a
// connection over its stdio.  extra files are passed as descriptors 3, 4,
// and so on.  The caller waits on the returned command.
func Spawn(ctx context.Context, binary string, args []string, extra []*os.File) (*Conn, *exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, binary, append([]string{"--embed"}, args...)...)
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = extra
	w, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	r, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", binary, err)
	}
	return NewConn(pipe{r, w}), cmd, nil
}

// Dial connects to a listening editor.  addr is a unix socket path or a
// host:port.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	network := "unix"
	if !strings.Contains(addr, "/") && strings.Contains(addr, ":") {
		network = "tcp"
	}
	var d net.Dialer
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewConn(c), nil
}
