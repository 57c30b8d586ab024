// Package gridfs is a client for the file tree served by nvgrid.
//
// nvgrid exports the state of an attached editor as a 9P file server: the
// grids, the highlight table, the derived theme, and the externalized
// command line, popup menu and tabline.  Every file is rendered from a
// single published snapshot when it is opened.
//
// Typical usage for a renderer or a script:
//
//	c, err := gridfs.Dial("")
//	if err != nil { ... }
//	defer c.Close()
//	ids, _ := c.Grids()
//	text, _ := c.GridText(ids[0])
//	c.Input("ihello<Esc>")
package gridfs

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"9fans.net/go/plan9"
	"9fans.net/go/plan9/client"
)

// Service is the name nvgrid announces in the namespace directory.
const Service = "nvgrid"

// DefaultAddr returns the socket nvgrid listens on by default.
func DefaultAddr() string {
	return client.Namespace() + "/" + Service
}

// Client is a connection to one nvgrid file server.
type Client struct {
	conn *client.Conn
	fsys *client.Fsys
}

// Dial connects to the server at addr, a unix socket path.  An empty addr
// means DefaultAddr.
func Dial(addr string) (*Client, error) {
	if addr == "" {
		addr = DefaultAddr()
	}
	conn, err := client.Dial("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "none"
	}
	fsys, err := conn.Attach(nil, user, "")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("attach %s: %w", addr, err)
	}
	return &Client{conn: conn, fsys: fsys}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ReadFile returns the content of name, relative to the root of the tree.
func (c *Client) ReadFile(name string) (string, error) {
	fid, err := c.fsys.Open(name, plan9.OREAD)
	if err != nil {
		return "", err
	}
	defer fid.Close()
	data, err := io.ReadAll(fid)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

// writeFile writes data to name in a single write.
func (c *Client) writeFile(name, data string) error {
	fid, err := c.fsys.Open(name, plan9.OWRITE)
	if err != nil {
		return err
	}
	defer fid.Close()
	if _, err := fid.Write([]byte(data)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Grids returns the ids of the live grids in ascending order.
func (c *Client) Grids() ([]int, error) {
	fid, err := c.fsys.Open("grids", plan9.OREAD)
	if err != nil {
		return nil, err
	}
	defer fid.Close()
	dirs, err := fid.Dirreadall()
	if err != nil {
		return nil, fmt.Errorf("read grids: %w", err)
	}
	ids := make([]int, 0, len(dirs))
	for _, d := range dirs {
		if id, err := strconv.Atoi(d.Name); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// GridText returns the text of grid id, one line per row.
func (c *Client) GridText(id int) (string, error) {
	return c.ReadFile(fmt.Sprintf("grids/%d/text", id))
}

// Cursor returns the cursor position of grid id.
func (c *Client) Cursor(id int) (row, col int, err error) {
	s, err := c.ReadFile(fmt.Sprintf("grids/%d/cursor", id))
	if err != nil {
		return 0, 0, err
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d %d", &row, &col); err != nil {
		return 0, 0, fmt.Errorf("parse cursor %q: %w", s, err)
	}
	return row, col, nil
}

// Input sends keys, in the editor's key notation, to the editor.
func (c *Client) Input(keys string) error {
	return c.writeFile("input", keys)
}

// Resize sets the window allocation in pixels.
func (c *Client) Resize(width, height int) error {
	return c.writeFile("ctl", fmt.Sprintf("resize %d %d\n", width, height))
}

// Quit ends the session.
func (c *Client) Quit() error {
	return c.writeFile("ctl", "quit\n")
}
