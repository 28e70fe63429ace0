// Package tty adapts a real terminal's keyboard to the machine's
// memory-mapped keyboard device. Grounded on the teacher's
// cmd/internal/tty.Console (raw-mode terminal I/O via golang.org/x/term),
// generalized to feed vm.NewKeyboard's io.Reader instead of a channel the
// teacher's own device polls directly, and on SchawnnDev-awesomeVM's
// internal/lc3/memory.go, which polls github.com/eiannone/keyboard.GetKey
// on every keyboard-register read rather than running its own ioctl-level
// raw-mode setup.
package tty

import (
	"context"
	"errors"
	"io"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"
)

// ErrNoTTY is returned when standard input is not a terminal: there is
// nothing for this package to adapt, and the caller should fall back to
// piped/file stdin.
var ErrNoTTY = errors.New("tty: not a terminal")

// Console adapts a real terminal's keystrokes into an io.Reader suitable for
// vm.NewKeyboard, via eiannone/keyboard's own raw-mode key capture instead of
// this package managing termios directly.
type Console struct {
	r      *io.PipeReader
	w      *io.PipeWriter
	cancel context.CancelFunc
}

// NewConsole opens the terminal connected to fd 0 in raw mode and starts
// relaying keystrokes into the returned Console's Reader. Returns ErrNoTTY
// if stdin is not a terminal (e.g. piped input in tests or batch runs),
// matching the teacher's NewConsole behavior.
func NewConsole() (*Console, error) {
	if !term.IsTerminal(0) {
		return nil, ErrNoTTY
	}

	if err := keyboard.Open(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()

	c := &Console{r: pr, w: pw, cancel: cancel}

	go c.relay(ctx)

	return c, nil
}

// Reader returns the io.Reader to pass to vm.NewKeyboard.
func (c *Console) Reader() io.Reader { return c.r }

// Close stops relaying keystrokes and restores the terminal.
func (c *Console) Close() {
	c.cancel()
	_ = c.w.Close()
	_ = keyboard.Close()
}

// relay polls eiannone/keyboard for one key at a time and writes its byte
// into the pipe that feeds vm.Keyboard's non-blocking Tick. GetKey blocks
// until a key is pressed or Close is called (which unblocks it by closing
// the underlying terminal).
func (c *Console) relay(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ch, key, err := keyboard.GetKey()
		if err != nil {
			return
		}

		if key == keyboard.KeyCtrlC {
			return
		}

		b := byte(ch)
		if ch == 0 {
			b = byte(key)
		}

		if _, err := c.w.Write([]byte{b}); err != nil {
			return
		}
	}
}
