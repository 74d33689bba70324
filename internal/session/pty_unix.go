//go:build linux || darwin

package session

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/arukana/neko/internal/plugin/state"
)

// startPTY starts cmd on the slave side of a new PTY.
func startPTY(cmd *exec.Cmd, ws state.Winsize) (PTY, error) {
	master, slave, err := openPTY()
	if err != nil {
		return nil, err
	}

	p := &unixPTY{master: master}
	if err := p.Resize(ws); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}

	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave

	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}

	slave.Close()
	return p, nil
}

// unixPTY implements PTY with ioctls on the master descriptor.
type unixPTY struct {
	master *os.File
}

func (p *unixPTY) Read(buf []byte) (int, error) {
	return p.master.Read(buf)
}

func (p *unixPTY) Write(data []byte) (int, error) {
	return p.master.Write(data)
}

func (p *unixPTY) Resize(ws state.Winsize) error {
	return unix.IoctlSetWinsize(int(p.master.Fd()), unix.TIOCSWINSZ, &unix.Winsize{
		Row:    ws.Row,
		Col:    ws.Col,
		Xpixel: ws.Xpixel,
		Ypixel: ws.Ypixel,
	})
}

func (p *unixPTY) Foreground() (int, error) {
	return unix.IoctlGetInt(int(p.master.Fd()), unix.TIOCGPGRP)
}

func (p *unixPTY) Close() error {
	return p.master.Close()
}

// windowSize returns the size of the terminal behind f.
func windowSize(f *os.File) (state.Winsize, bool) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return state.Winsize{}, false
	}
	return state.Winsize{
		Row:    ws.Row,
		Col:    ws.Col,
		Xpixel: ws.Xpixel,
		Ypixel: ws.Ypixel,
	}, true
}
