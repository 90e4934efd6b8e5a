// Package monitor runs the interactive session: it moves device output through the
// annotator to the display and acts on keyboard commands.
//
// One goroutine owns the serial connection and the display. Keyboard input is read by a
// producer goroutine that feeds a bounded channel of commands; on every tick the loop
// drains all serial output that has arrived before it acts on queued commands, so a
// reset never drops output that was already received.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/coral-mesh/mcumon/internal/constants"
	"github.com/coral-mesh/mcumon/internal/serial"
)

// Conn is the serial connection driven by the loop. *serial.Session implements it.
type Conn interface {
	ReadChunk(buf []byte) (int, error)
	Write(p []byte) (int, error)
	Reset(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Connected() bool
	Close() error
}

// Annotator rewrites a line before display.
type Annotator interface {
	Line(line string) string
}

// Display receives device output and session notices.
type Display interface {
	WriteLine(line string) error
	Status(msg string) error
}

// KeySource yields keyboard bytes. ReadKey waits at most timeout and reports ok=false
// when nothing was typed. io.EOF ends the input.
type KeySource interface {
	ReadKey(timeout time.Duration) (b byte, ok bool, err error)
}

// Options configures a Loop.
type Options struct {
	// Connect opens the serial connection. A failure ends the session before it starts.
	Connect func(ctx context.Context) (Conn, error)

	Annotator Annotator
	Display   Display

	// Keys is nil in non-interactive mode; the session then runs until ctx is done.
	Keys    KeySource
	Decoder Decoder

	// ForwardInput writes passthrough bytes to the device.
	ForwardInput   bool
	ResetOnConnect bool

	ReconnectInterval  time.Duration
	KeyPollTimeout     time.Duration
	PartialLineTimeout time.Duration
	ReadChunkSize      int
	MaxLineLength      int
}

// Loop is the session state machine.
type Loop struct {
	opts   Options
	logger zerolog.Logger

	state     atomic.Int32
	conn      Conn
	connected bool
	lines     *LineBuffer
	buf       []byte

	nextReconnect time.Time
}

// New creates a Loop.
func New(opts Options, logger zerolog.Logger) *Loop {
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = constants.DefaultReconnectInterval
	}
	if opts.KeyPollTimeout <= 0 {
		opts.KeyPollTimeout = constants.DefaultKeyPollTimeout
	}
	if opts.ReadChunkSize <= 0 {
		opts.ReadChunkSize = constants.DefaultReadChunkSize
	}
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = constants.MaxLineLength
	}
	if opts.Annotator == nil {
		opts.Annotator = passthroughAnnotator{}
	}
	if opts.Decoder == nil {
		opts.Decoder = passthroughDecoder{}
	}

	l := &Loop{
		opts:   opts,
		logger: logger.With().Str("component", "monitor").Logger(),
		lines:  NewLineBuffer(opts.MaxLineLength),
		buf:    make([]byte, opts.ReadChunkSize),
	}
	l.state.Store(int32(StateConnecting))
	return l
}

// State returns the current state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(s State) {
	prev := State(l.state.Swap(int32(s)))
	if prev != s {
		l.logger.Debug().Stringer("from", prev).Stringer("to", s).Msg("Session state changed")
	}
}

// Run connects and runs the session until Quit, end of keyboard input or ctx is done.
// It returns nil after Quit or end of input, ctx.Err() when ctx ended the session, and
// otherwise the error that terminated it.
func (l *Loop) Run(ctx context.Context) error {
	l.setState(StateConnecting)
	conn, err := l.opts.Connect(ctx)
	if err != nil {
		l.setState(StateTerminated)
		return err
	}
	l.conn = conn
	l.connected = conn.Connected()

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(loopCtx)

	var commands chan Command
	if l.opts.Keys != nil {
		commands = make(chan Command, constants.DefaultCommandQueueSize)
		g.Go(func() error {
			return l.readKeys(gctx, commands)
		})
	}

	g.Go(func() error {
		// The producer stops once the loop is done.
		defer cancel()
		return l.run(gctx, commands)
	})

	err = g.Wait()
	if err == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (l *Loop) run(ctx context.Context, commands <-chan Command) error {
	if l.opts.ResetOnConnect {
		if err := l.reset(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn().Err(err).Msg("Reset on connect failed")
		}
	}
	l.setState(StateRunning)

	for {
		if ctx.Err() != nil {
			return l.close()
		}

		if l.connected {
			if err := l.drain(); err != nil {
				l.closeQuietly()
				return err
			}
		} else {
			l.reconnect(ctx)
		}

		if err := l.flushStale(); err != nil {
			l.closeQuietly()
			return err
		}

		quit, err := l.handleCommands(ctx, commands)
		if err != nil {
			l.closeQuietly()
			return err
		}
		if quit {
			return l.close()
		}
	}
}

// drain reads until a read returns less than a full buffer, displaying every completed
// line.
func (l *Loop) drain() error {
	for {
		n, err := l.conn.ReadChunk(l.buf)
		if n > 0 {
			for _, line := range l.lines.Feed(l.buf[:n]) {
				if err := l.show(line); err != nil {
					return err
				}
			}
		}
		if err != nil {
			return l.disconnected(err)
		}
		if n < len(l.buf) {
			return nil
		}
	}
}

func (l *Loop) show(line string) error {
	return l.opts.Display.WriteLine(l.opts.Annotator.Line(line))
}

// flushPartial displays the partial line as it is. Bytes received after this never join it.
func (l *Loop) flushPartial() error {
	if line, ok := l.lines.Flush(); ok {
		return l.show(line)
	}
	return nil
}

func (l *Loop) flushStale() error {
	if l.opts.PartialLineTimeout > 0 && l.lines.Age() > l.opts.PartialLineTimeout {
		return l.flushPartial()
	}
	return nil
}

func (l *Loop) disconnected(cause error) error {
	if !errors.Is(cause, serial.ErrDisconnected) {
		return fmt.Errorf("serial read failed: %w", cause)
	}
	l.logger.Warn().Err(cause).Msg("Serial device disconnected")
	l.connected = false
	l.nextReconnect = time.Now().Add(l.opts.ReconnectInterval)
	if err := l.flushPartial(); err != nil {
		return err
	}
	return l.opts.Display.Status("device disconnected, waiting for it to come back")
}

func (l *Loop) reconnect(ctx context.Context) {
	if time.Now().Before(l.nextReconnect) {
		return
	}
	if err := l.conn.Reconnect(ctx); err != nil {
		l.logger.Debug().Err(err).Msg("Reconnect attempt failed")
		l.nextReconnect = time.Now().Add(l.opts.ReconnectInterval)
		return
	}
	l.connected = l.conn.Connected()
	if l.connected {
		_ = l.opts.Display.Status("device reconnected")
	}
}

// handleCommands acts on queued commands. While disconnected it waits up to the key
// poll timeout for one, so the loop does not spin between reconnect attempts.
func (l *Loop) handleCommands(ctx context.Context, commands <-chan Command) (bool, error) {
	if !l.connected {
		timer := time.NewTimer(l.opts.KeyPollTimeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, nil
		case <-timer.C:
			return false, nil
		case cmd := <-commands:
			return l.handle(ctx, cmd)
		}
	}

	for {
		select {
		case cmd := <-commands:
			quit, err := l.handle(ctx, cmd)
			if quit || err != nil {
				return quit, err
			}
		default:
			return false, nil
		}
	}
}

func (l *Loop) handle(ctx context.Context, cmd Command) (bool, error) {
	l.logger.Trace().Stringer("command", cmd).Msg("Command")

	switch cmd.Kind {
	case CommandQuit:
		return true, nil

	case CommandReset:
		if err := l.flushPartial(); err != nil {
			return false, err
		}
		if err := l.reset(ctx); err != nil {
			if ctx.Err() != nil {
				return false, nil
			}
			l.logger.Warn().Err(err).Msg("Reset failed")
			return false, l.opts.Display.Status(fmt.Sprintf("reset failed: %v", err))
		}

	case CommandPassthrough:
		if !l.opts.ForwardInput || !l.connected {
			return false, nil
		}
		if _, err := l.conn.Write([]byte{cmd.Byte}); err != nil {
			if !l.conn.Connected() {
				return false, l.disconnected(err)
			}
			l.logger.Debug().Err(err).Msg("Failed to forward input")
		}
	}
	return false, nil
}

func (l *Loop) reset(ctx context.Context) error {
	l.setState(StateResetting)
	defer l.setState(StateRunning)

	if err := l.conn.Reset(ctx); err != nil {
		return err
	}
	if !l.connected {
		return l.opts.Display.Status("reset queued until the device reconnects")
	}
	return l.opts.Display.Status("device reset")
}

func (l *Loop) close() error {
	l.setState(StateClosing)
	flushErr := l.flushPartial()
	closeErr := l.conn.Close()
	l.setState(StateTerminated)
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		l.logger.Debug().Err(closeErr).Msg("Failed to close serial port")
	}
	return nil
}

func (l *Loop) closeQuietly() {
	l.setState(StateClosing)
	_ = l.conn.Close()
	l.setState(StateTerminated)
}

// readKeys decodes keyboard bytes into commands until ctx is done. End of input is
// reported as Quit.
func (l *Loop) readKeys(ctx context.Context, out chan<- Command) error {
	for ctx.Err() == nil {
		b, ok, err := l.opts.Keys.ReadKey(l.opts.KeyPollTimeout)
		if err != nil {
			if errors.Is(err, io.EOF) {
				select {
				case out <- Quit():
				case <-ctx.Done():
				}
				return nil
			}
			return fmt.Errorf("keyboard read failed: %w", err)
		}
		if !ok {
			continue
		}

		select {
		case out <- l.opts.Decoder.Decode(b):
		case <-ctx.Done():
		}
	}
	return nil
}

type passthroughAnnotator struct{}

func (passthroughAnnotator) Line(line string) string { return line }

type passthroughDecoder struct{}

func (passthroughDecoder) Decode(b byte) Command { return Passthrough(b) }
