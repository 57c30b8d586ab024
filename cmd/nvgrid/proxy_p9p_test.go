//go:build !plan9

package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/cptaffe/nvgrid/gridfs"
	"github.com/cptaffe/nvgrid/internal/rpc"
	"github.com/cptaffe/nvgrid/internal/rpc/rpctest"
	"github.com/cptaffe/nvgrid/internal/server"
	"github.com/cptaffe/nvgrid/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenWithoutMultiplexer(t *testing.T) {
	old := ninepserve
	ninepserve = filepath.Join(t.TempDir(), "no-such-9pserve")
	t.Cleanup(func() { ninepserve = old })

	srv := filepath.Join(t.TempDir(), "nvgrid")
	require.NoError(t, os.WriteFile(srv, nil, 0o600))

	_, _, err := listen(srv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-9pserve")
	_, statErr := os.Stat(srv)
	assert.True(t, os.IsNotExist(statErr), "stale socket left behind")
}

func TestListenThroughMultiplexer(t *testing.T) {
	if _, err := exec.LookPath(ninepserve); err != nil {
		t.Skip("9pserve not installed")
	}
	ed, pc := rpctest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sess := server.NewSession(ctx, rpc.NewConn(pc), server.Options{})
	go sess.Run() //nolint:errcheck
	require.NoError(t, ed.Redraw(
		[]interface{}{"set_title", []interface{}{"via 9pserve"}},
		[]interface{}{"flush", []interface{}{}},
	))
	wctx, wcancel := context.WithTimeout(ctx, 2*time.Second)
	defer wcancel()
	_, err := sess.WaitSnapshot(wctx, func(s *ui.Snapshot) bool { return s.Title != "" })
	require.NoError(t, err)

	addr := filepath.Join(t.TempDir(), "nvgrid")
	rwc, cleanup, err := listen(addr)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	srv := server.NewServer(ctx, sess)
	srv.ServeConn(rwc)

	var c *gridfs.Client
	require.Eventually(t, func() bool {
		c, err = gridfs.Dial(addr)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	defer c.Close()
	title, err := c.ReadFile("title")
	require.NoError(t, err)
	assert.Equal(t, "via 9pserve\n", title)
}
