package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"9fans.net/go/plan9"
	"github.com/cptaffe/nvgrid/internal/ui"
	"github.com/cptaffe/nvgrid/logger"
	"go.uber.org/zap"
)

// Sentinel walk errors.
var (
	ErrNoFile = errors.New("no such file")
	ErrNotDir = errors.New("not a directory")
)

// File-type constants encoded into Qid.Path.
const (
	ftRoot      = 0
	ftGridsDir  = 1
	ftGridDir   = 2
	ftColors    = 3
	ftTheme     = 4
	ftTitle     = 5
	ftMode      = 6
	ftTabline   = 7
	ftCmdline   = 8
	ftPopupmenu = 9
	ftInput     = 10
	ftCtl       = 11
	ftText      = 12 // grids/<id>/text
	ftCursor    = 13
	ftPos       = 14
	ftHL        = 15
)

// rootFiles are the plain files of the root directory, in listing order.
var rootFiles = []struct {
	name string
	ft   int
	mode plan9.Perm
}{
	{"colors", ftColors, 0444},
	{"theme", ftTheme, 0444},
	{"title", ftTitle, 0444},
	{"mode", ftMode, 0444},
	{"tabline", ftTabline, 0444},
	{"cmdline", ftCmdline, 0444},
	{"popupmenu", ftPopupmenu, 0444},
	{"input", ftInput, 0222},
	{"ctl", ftCtl, 0666},
}

var gridFiles = []struct {
	name string
	ft   int
}{
	{"text", ftText},
	{"cursor", ftCursor},
	{"pos", ftPos},
	{"hl", ftHL},
}

func isDir(ft int) bool {
	return ft == ftRoot || ft == ftGridsDir || ft == ftGridDir
}

// makePath encodes (ft, gridID) into a Qid.Path: [ft:16][unused:16][grid:32].
func makePath(ft, gridID int) uint64 {
	return (uint64(ft) << 48) | uint64(uint32(gridID))
}

func (s *Server) makeQID(ft, gridID int) plan9.Qid {
	qt := uint8(plan9.QTFILE)
	if isDir(ft) {
		qt = plan9.QTDIR
	}
	return plan9.Qid{Type: qt, Path: makePath(ft, gridID)}
}

func (s *Server) makeDir(ft, gridID int) plan9.Dir {
	now := uint32(time.Now().Unix())
	var name string
	mode := plan9.Perm(0444)
	switch ft {
	case ftRoot:
		name = "/"
	case ftGridsDir:
		name = "grids"
	case ftGridDir:
		name = strconv.Itoa(gridID)
	}
	for _, f := range rootFiles {
		if f.ft == ft {
			name, mode = f.name, f.mode
		}
	}
	for _, f := range gridFiles {
		if f.ft == ft {
			name = f.name
		}
	}
	if isDir(ft) {
		mode = plan9.DMDIR | 0555
	}
	return plan9.Dir{
		Qid:   s.makeQID(ft, gridID),
		Mode:  mode,
		Atime: now, Mtime: now,
		Name: name,
		Uid:  "none", Gid: "none", Muid: "none",
	}
}

// snapshot returns the latest snapshot, or an empty one before the first
// flush.
func (s *Server) snapshot() *ui.Snapshot {
	if snap := s.sess.Snapshot(); snap != nil {
		return snap
	}
	return &ui.Snapshot{}
}

// walkStep advances one path component from (ft, gridID).
func (s *Server) walkStep(ft, gridID int, name string) (int, int, error) {
	if name == ".." {
		switch ft {
		case ftRoot, ftGridsDir:
			return ftRoot, 0, nil
		case ftGridDir:
			return ftGridsDir, 0, nil
		default:
			return 0, 0, ErrNotDir
		}
	}
	switch ft {
	case ftRoot:
		if name == "grids" {
			return ftGridsDir, 0, nil
		}
		for _, f := range rootFiles {
			if f.name == name {
				return f.ft, 0, nil
			}
		}
		return 0, 0, ErrNoFile
	case ftGridsDir:
		id, err := strconv.Atoi(name)
		if err != nil || s.snapshot().Grid(id) == nil {
			return 0, 0, ErrNoFile
		}
		return ftGridDir, id, nil
	case ftGridDir:
		for _, f := range gridFiles {
			if f.name == name {
				return f.ft, gridID, nil
			}
		}
		return 0, 0, ErrNoFile
	default:
		return 0, 0, ErrNotDir
	}
}

// readDir returns marshalled plan9.Dir entries for the children of ft.
func (s *Server) readDir(ft, gridID int) []byte {
	var dirs []plan9.Dir
	switch ft {
	case ftRoot:
		dirs = append(dirs, s.makeDir(ftGridsDir, 0))
		for _, f := range rootFiles {
			dirs = append(dirs, s.makeDir(f.ft, 0))
		}
	case ftGridsDir:
		for _, v := range s.snapshot().Grids {
			dirs = append(dirs, s.makeDir(ftGridDir, v.ID))
		}
	case ftGridDir:
		for _, f := range gridFiles {
			dirs = append(dirs, s.makeDir(f.ft, gridID))
		}
	}
	var buf []byte
	for _, d := range dirs {
		if b, err := d.Bytes(); err == nil {
			buf = append(buf, b...)
		}
	}
	return buf
}

// content renders a read-only file from one snapshot.
func (s *Server) content(ft, gridID int) ([]byte, error) {
	snap := s.snapshot()
	var text string
	switch ft {
	case ftColors:
		if snap.Colors == nil {
			return nil, nil
		}
		text = formatColors(snap.Colors)
	case ftTheme:
		text = formatTheme(snap)
	case ftTitle:
		text = formatTitle(snap)
	case ftMode:
		text = formatMode(snap)
	case ftTabline:
		text = formatTabline(snap)
	case ftCmdline:
		text = formatCmdline(snap)
	case ftPopupmenu:
		text = formatPopupmenu(snap)
	case ftCtl:
		w, h := s.sess.Allocation()
		text = fmt.Sprintf("seq %d\nallocation %d %d\n", snap.Seq, w, h)
	case ftText, ftCursor, ftPos, ftHL:
		v := snap.Grid(gridID)
		if v == nil {
			return nil, errors.New("grid gone")
		}
		switch ft {
		case ftText:
			text = formatGridText(v)
		case ftCursor:
			text = formatCursor(v)
		case ftPos:
			text = formatPos(v)
		case ftHL:
			text = formatHL(v)
		}
	}
	return []byte(text), nil
}

// ---- per-connection state ----

type fid struct {
	ft     int
	gridID int
	open   bool
	mode   uint8
	buf    []byte // buffered read content (set at Topen)
	wbuf   []byte // partial ctl line
}

type conn struct {
	srv   *Server
	fids  map[uint32]*fid
	msize uint32
}

func (s *Server) handleConn(c io.ReadWriteCloser) {
	defer c.Close()
	log := logger.L(s.ctx)
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	cn := &conn{
		srv:   s,
		fids:  make(map[uint32]*fid),
		msize: 8192 + plan9.IOHDRSZ,
	}
	for {
		fc, err := plan9.ReadFcall(c)
		if err != nil {
			return
		}
		start := time.Now()
		resp := cn.dispatch(fc)
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			log.Warn("slow dispatch",
				zap.String("type", fcallTypeName(fc.Type)),
				zap.Duration("elapsed", elapsed))
		}
		if err := plan9.WriteFcall(c, resp); err != nil {
			return
		}
	}
}

func rerr(tag uint16, msg string) *plan9.Fcall {
	return &plan9.Fcall{Type: plan9.Rerror, Tag: tag, Ename: msg}
}

func (cn *conn) dispatch(fc *plan9.Fcall) *plan9.Fcall {
	switch fc.Type {
	case plan9.Tversion:
		return cn.doVersion(fc)
	case plan9.Tauth:
		return rerr(fc.Tag, "no authentication required")
	case plan9.Tattach:
		return cn.doAttach(fc)
	case plan9.Tflush:
		return &plan9.Fcall{Type: plan9.Rflush, Tag: fc.Tag}
	case plan9.Twalk:
		return cn.doWalk(fc)
	case plan9.Topen:
		return cn.doOpen(fc)
	case plan9.Tcreate:
		return rerr(fc.Tag, "create not supported")
	case plan9.Tread:
		return cn.doRead(fc)
	case plan9.Twrite:
		return cn.doWrite(fc)
	case plan9.Tclunk:
		return cn.doClunk(fc)
	case plan9.Tremove:
		return rerr(fc.Tag, "remove not supported")
	case plan9.Tstat:
		return cn.doStat(fc)
	case plan9.Twstat:
		return rerr(fc.Tag, "wstat not supported")
	default:
		return rerr(fc.Tag, "unknown message type")
	}
}

func (cn *conn) doVersion(fc *plan9.Fcall) *plan9.Fcall {
	msize := fc.Msize
	if msize > cn.msize {
		msize = cn.msize
	}
	cn.msize = msize
	cn.fids = make(map[uint32]*fid)
	ver := "9P2000"
	if !strings.HasPrefix(fc.Version, "9P2000") {
		ver = "unknown"
	}
	return &plan9.Fcall{Type: plan9.Rversion, Tag: fc.Tag, Msize: msize, Version: ver}
}

func (cn *conn) doAttach(fc *plan9.Fcall) *plan9.Fcall {
	cn.fids[fc.Fid] = &fid{ft: ftRoot}
	return &plan9.Fcall{
		Type: plan9.Rattach,
		Tag:  fc.Tag,
		Qid:  cn.srv.makeQID(ftRoot, 0),
	}
}

func (cn *conn) doWalk(fc *plan9.Fcall) *plan9.Fcall {
	f := cn.fids[fc.Fid]
	if f == nil {
		return rerr(fc.Tag, "fid unknown")
	}
	if f.open {
		return rerr(fc.Tag, "fid is open")
	}

	curFt, curGrid := f.ft, f.gridID
	wqids := make([]plan9.Qid, 0, len(fc.Wname))

	for i, name := range fc.Wname {
		nft, ngrid, err := cn.srv.walkStep(curFt, curGrid, name)
		if err != nil {
			if i == 0 {
				return rerr(fc.Tag, err.Error())
			}
			break
		}
		wqids = append(wqids, cn.srv.makeQID(nft, ngrid))
		curFt, curGrid = nft, ngrid
	}

	if len(wqids) == len(fc.Wname) {
		cn.fids[fc.Newfid] = &fid{ft: curFt, gridID: curGrid}
	}
	return &plan9.Fcall{Type: plan9.Rwalk, Tag: fc.Tag, Wqid: wqids}
}

func (cn *conn) doOpen(fc *plan9.Fcall) *plan9.Fcall {
	f := cn.fids[fc.Fid]
	if f == nil {
		return rerr(fc.Tag, "fid unknown")
	}
	if f.open {
		return rerr(fc.Tag, "already open")
	}
	s := cn.srv
	mode := fc.Mode & 3
	reading := mode == plan9.OREAD || mode == plan9.ORDWR

	switch f.ft {
	case ftRoot, ftGridsDir, ftGridDir:
		if mode != plan9.OREAD {
			return rerr(fc.Tag, "is a directory")
		}
		f.buf = s.readDir(f.ft, f.gridID)

	case ftInput:
		if mode != plan9.OWRITE {
			return rerr(fc.Tag, "permission denied")
		}

	case ftCtl:
		if reading {
			buf, err := s.content(f.ft, f.gridID)
			if err != nil {
				return rerr(fc.Tag, err.Error())
			}
			f.buf = buf
		}

	default:
		if mode != plan9.OREAD {
			return rerr(fc.Tag, "permission denied")
		}
		buf, err := s.content(f.ft, f.gridID)
		if err != nil {
			return rerr(fc.Tag, err.Error())
		}
		f.buf = buf
	}

	f.open = true
	f.mode = fc.Mode
	return &plan9.Fcall{
		Type:   plan9.Ropen,
		Tag:    fc.Tag,
		Qid:    s.makeQID(f.ft, f.gridID),
		Iounit: cn.msize - plan9.IOHDRSZ,
	}
}

func (cn *conn) doRead(fc *plan9.Fcall) *plan9.Fcall {
	f := cn.fids[fc.Fid]
	if f == nil {
		return rerr(fc.Tag, "fid unknown")
	}
	if !f.open {
		return rerr(fc.Tag, "not open")
	}
	off := fc.Offset
	if off >= uint64(len(f.buf)) {
		return &plan9.Fcall{Type: plan9.Rread, Tag: fc.Tag, Data: nil}
	}
	end := off + uint64(fc.Count)
	if end > uint64(len(f.buf)) {
		end = uint64(len(f.buf))
	}
	if isDir(f.ft) {
		end = dirEnd(f.buf, off, end)
		if end == off {
			return rerr(fc.Tag, "read count too small")
		}
	}
	return &plan9.Fcall{Type: plan9.Rread, Tag: fc.Tag, Data: f.buf[off:end]}
}

// dirEnd backs end up to the last whole stat entry in buf[off:end].  Each
// entry starts with its own size as a little-endian uint16.
func dirEnd(buf []byte, off, end uint64) uint64 {
	next := off
	for next+2 <= end {
		n := next + 2 + (uint64(buf[next]) | uint64(buf[next+1])<<8)
		if n > end {
			break
		}
		next = n
	}
	return next
}

func (cn *conn) doWrite(fc *plan9.Fcall) *plan9.Fcall {
	f := cn.fids[fc.Fid]
	if f == nil {
		return rerr(fc.Tag, "fid unknown")
	}
	if !f.open {
		return rerr(fc.Tag, "not open")
	}
	s := cn.srv
	n := len(fc.Data)

	switch f.ft {
	case ftInput:
		ctx, cancel := context.WithTimeout(s.ctx, callTimeout)
		defer cancel()
		if _, err := s.sess.Input(ctx, string(fc.Data)); err != nil {
			return rerr(fc.Tag, err.Error())
		}

	case ftCtl:
		f.wbuf = append(f.wbuf, fc.Data...)
		for {
			nl := bytes.IndexByte(f.wbuf, '\n')
			if nl < 0 {
				break
			}
			cmd := strings.TrimSpace(string(f.wbuf[:nl]))
			f.wbuf = f.wbuf[nl+1:]
			if cmd == "" {
				continue
			}
			if err := s.ctl(cmd); err != nil {
				return rerr(fc.Tag, err.Error())
			}
		}

	default:
		return rerr(fc.Tag, "not writable")
	}
	return &plan9.Fcall{Type: plan9.Rwrite, Tag: fc.Tag, Count: uint32(n)}
}

// ctl runs one control command:
//
//	resize <width> <height>	set the window allocation in pixels
//	quit			end the session
func (s *Server) ctl(cmd string) error {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case "resize":
		if len(fields) != 3 {
			return fmt.Errorf("usage: resize width height")
		}
		w, err1 := strconv.Atoi(fields[1])
		h, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("bad size %q", cmd)
		}
		return s.sess.Resize(w, h)
	case "quit":
		s.sess.Stop()
		return nil
	}
	return fmt.Errorf("unknown ctl command: %s", cmd)
}

func (cn *conn) doClunk(fc *plan9.Fcall) *plan9.Fcall {
	f := cn.fids[fc.Fid]
	if f != nil && f.open && f.ft == ftCtl && len(bytes.TrimSpace(f.wbuf)) > 0 {
		// A final command without a trailing newline.
		if err := cn.srv.ctl(strings.TrimSpace(string(f.wbuf))); err != nil {
			logger.L(cn.srv.ctx).Warn("ctl", zap.Error(err))
		}
	}
	delete(cn.fids, fc.Fid)
	return &plan9.Fcall{Type: plan9.Rclunk, Tag: fc.Tag}
}

func (cn *conn) doStat(fc *plan9.Fcall) *plan9.Fcall {
	f := cn.fids[fc.Fid]
	if f == nil {
		return rerr(fc.Tag, "fid unknown")
	}
	d := cn.srv.makeDir(f.ft, f.gridID)
	stat, err := d.Bytes()
	if err != nil {
		return rerr(fc.Tag, err.Error())
	}
	return &plan9.Fcall{Type: plan9.Rstat, Tag: fc.Tag, Stat: stat}
}

func fcallTypeName(t uint8) string {
	switch t {
	case plan9.Tversion:
		return "Tversion"
	case plan9.Tauth:
		return "Tauth"
	case plan9.Tattach:
		return "Tattach"
	case plan9.Tflush:
		return "Tflush"
	case plan9.Twalk:
		return "Twalk"
	case plan9.Topen:
		return "Topen"
	case plan9.Tcreate:
		return "Tcreate"
	case plan9.Tread:
		return "Tread"
	case plan9.Twrite:
		return "Twrite"
	case plan9.Tclunk:
		return "Tclunk"
	case plan9.Tremove:
		return "Tremove"
	case plan9.Tstat:
		return "Tstat"
	case plan9.Twstat:
		return "Twstat"
	default:
		return fmt.Sprintf("T%d", t)
	}
}
