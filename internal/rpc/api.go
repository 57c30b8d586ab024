package rpc

import (
	"context"
	"fmt"
)

// Version is reported to the editor in nvim_set_client_info.
type Version struct {
	Major, Minor, Patch int
}

// SetClientInfo identifies this process as a UI client.
func (c *Conn) SetClientInfo(ctx context.Context, name string, v Version) error {
	version := map[string]interface{}{
		"major": v.Major,
		"minor": v.Minor,
		"patch": v.Patch,
	}
	_, err := c.Call(ctx, "nvim_set_client_info", name, version, "ui",
		map[string]interface{}{}, map[string]interface{}{})
	return err
}

// AttachOptions are the UI extensions requested by AttachUI.  StdinFD is
// sent only when positive.
type AttachOptions struct {
	RGB          bool
	ExtLinegrid  bool
	ExtMultigrid bool
	ExtPopupmenu bool
	ExtTabline   bool
	ExtCmdline   bool
	StdinFD      int
}

// DefaultAttachOptions requests every extension the UI implements.
func DefaultAttachOptions() AttachOptions {
	return AttachOptions{
		RGB:          true,
		ExtLinegrid:  true,
		ExtMultigrid: true,
		ExtPopupmenu: true,
		ExtTabline:   true,
		ExtCmdline:   true,
	}
}

func (o AttachOptions) dict() map[string]interface{} {
	m := map[string]interface{}{
		"rgb":           o.RGB,
		"ext_linegrid":  o.ExtLinegrid,
		"ext_multigrid": o.ExtMultigrid,
		"ext_popupmenu": o.ExtPopupmenu,
		"ext_tabline":   o.ExtTabline,
		"ext_cmdline":   o.ExtCmdline,
	}
	if o.StdinFD > 0 {
		m["stdin_fd"] = o.StdinFD
	}
	return m
}

// AttachUI attaches as an external UI of width×height cells.
func (c *Conn) AttachUI(ctx context.Context, width, height int, opts AttachOptions) error {
	_, err := c.Call(ctx, "nvim_ui_attach", width, height, opts.dict())
	return err
}

// Input queues keys, in key notation, and returns the number of bytes the
// editor accepted.
func (c *Conn) Input(ctx context.Context, keys string) (int, error) {
	v, err := c.Call(ctx, "nvim_input", keys)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	}
	return 0, fmt.Errorf("nvim_input: unexpected result %T", v)
}

// TryResizeGrid asks the editor to resize grid to width×height cells.
func (c *Conn) TryResizeGrid(ctx context.Context, grid, width, height int) error {
	_, err := c.Call(ctx, "nvim_ui_try_resize_grid", grid, width, height)
	return err
}

// Echo shows chunks in the message area.  Each chunk is a text and an
// optional highlight group name.
func (c *Conn) Echo(ctx context.Context, chunks [][]string, history bool) error {
	cs := make([]interface{}, len(chunks))
	for i, ch := range chunks {
		a := make([]interface{}, len(ch))
		for j, s := range ch {
			a[j] = s
		}
		cs[i] = a
	}
	_, err := c.Call(ctx, "nvim_echo", cs, history, map[string]interface{}{})
	return err
}
