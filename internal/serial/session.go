// Package serial owns the connection to the device: opening the port, the chip
// family's reset sequence, bounded-timeout reads and reattachment after the device
// goes away.
package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/mcumon/internal/constants"
	"github.com/coral-mesh/mcumon/internal/privilege"
	"github.com/coral-mesh/mcumon/internal/retry"
)

var (
	// ErrPortNotFound is returned when the named port does not exist.
	ErrPortNotFound = errors.New("serial port not found")
	// ErrAmbiguousPort is returned by Discover when several ports could be the device.
	ErrAmbiguousPort = errors.New("several serial ports found")
	// ErrPortUnavailable is returned when the port exists but cannot be opened.
	ErrPortUnavailable = errors.New("serial port unavailable")
	// ErrInvalidBaud is returned for a baud rate the port cannot use.
	ErrInvalidBaud = errors.New("invalid baud rate")
	// ErrDisconnected is returned by reads and writes once the port has gone away.
	ErrDisconnected = errors.New("serial port disconnected")
	// ErrUnknownChip is returned for a chip name with no reset sequence.
	ErrUnknownChip = errors.New("unknown chip family")
)

// Config describes the port a Session attaches to.
type Config struct {
	Port   string
	Baud   int
	Family Family

	// ReadTimeout bounds every ReadChunk call.
	ReadTimeout time.Duration

	// OpenRetries is the number of attempts Open makes while the port is busy.
	OpenRetries int
	OpenBackoff time.Duration

	// Opener defaults to OpenPort.
	Opener Opener
}

// Session is the open connection to the device. Reads, writes and resets are issued by
// a single control loop; the mutex only guards the control lines and the connection
// state against Close.
type Session struct {
	cfg    Config
	logger zerolog.Logger

	mu           sync.Mutex
	port         Port
	connected    bool
	resetPending bool
	closed       bool
}

// Open validates the baud rate and opens the port, retrying while it is busy. When the
// port stays busy the error names the process holding it, if it can be found.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Session, error) {
	if err := ValidateBaud(cfg.Baud); err != nil {
		return nil, err
	}
	if cfg.Opener == nil {
		cfg.Opener = OpenPort
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = constants.DefaultReadTimeout
	}
	if cfg.OpenRetries <= 0 {
		cfg.OpenRetries = 1
	}
	if cfg.OpenBackoff <= 0 {
		cfg.OpenBackoff = constants.DefaultOpenBackoff
	}

	s := &Session{
		cfg:    cfg,
		logger: logger.With().Str("component", "serial").Str("port", cfg.Port).Logger(),
	}

	err := retry.Do(ctx, retry.Config{
		MaxRetries:     cfg.OpenRetries,
		InitialBackoff: cfg.OpenBackoff,
		MaxBackoff:     2 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			s.logger.Debug().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("Serial port busy, retrying")
		},
	}, s.connect, func(err error) bool {
		return errors.Is(err, ErrPortUnavailable) && !permissionDenied(err)
	})
	if err != nil {
		switch {
		case permissionDenied(err):
			if hint := privilege.AccessHint(cfg.Port); hint != "" {
				err = fmt.Errorf("%w (%s)", err, hint)
			}
		case errors.Is(err, ErrPortUnavailable):
			if holder, ok := FindHolder(ctx, cfg.Port); ok {
				err = fmt.Errorf("%w (held by %s)", err, holder)
			}
		}
		return nil, err
	}

	return s, nil
}

func (s *Session) connect() error {
	port, err := s.cfg.Opener(s.cfg.Port, s.cfg.Baud)
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(s.cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("%w: failed to set read timeout: %w", ErrPortUnavailable, err)
	}

	s.mu.Lock()
	s.port = port
	s.connected = true
	s.mu.Unlock()

	s.logger.Info().Int("baud", s.cfg.Baud).Msg("Serial port open")
	return nil
}

// Name returns the port name.
func (s *Session) Name() string {
	return s.cfg.Port
}

// Baud returns the configured baud rate.
func (s *Session) Baud() int {
	return s.cfg.Baud
}

// Family returns the reset sequence in use.
func (s *Session) Family() Family {
	return s.cfg.Family
}

// Connected reports whether the port is currently attached.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ResetPending reports whether a reset was requested while disconnected and will run
// on the next successful Reconnect.
func (s *Session) ResetPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetPending
}

// Reset runs the family's reset sequence. Every hold returns early when ctx is done,
// after releasing both control lines. While disconnected the reset is deferred to the
// next Reconnect.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		s.resetPending = true
		return nil
	}
	return s.resetLocked(ctx)
}

func (s *Session) resetLocked(ctx context.Context) error {
	s.resetPending = false
	s.logger.Debug().Str("chip", s.cfg.Family.Name).Int("steps", len(s.cfg.Family.Steps)).Msg("Resetting device")

	for _, step := range s.cfg.Family.Steps {
		if err := s.setLine(step.Line, step.Level); err != nil {
			return fmt.Errorf("failed to set %s: %w", step.Line, err)
		}
		if step.Hold <= 0 {
			continue
		}
		if err := sleep(ctx, step.Hold); err != nil {
			_ = s.port.SetRTS(false)
			_ = s.port.SetDTR(false)
			return err
		}
	}
	return nil
}

func (s *Session) setLine(line Line, level bool) error {
	switch line {
	case DTR:
		return s.port.SetDTR(level)
	case RTS:
		return s.port.SetRTS(level)
	default:
		return fmt.Errorf("unknown control line %s", line)
	}
}

// ReadChunk reads whatever arrives within the read timeout. A timeout returns (0, nil).
// Any other failure closes the port and returns an error wrapping ErrDisconnected,
// together with the bytes read before the failure.
func (s *Session) ReadChunk(buf []byte) (int, error) {
	s.mu.Lock()
	port, connected := s.port, s.connected
	s.mu.Unlock()

	if !connected {
		return 0, ErrDisconnected
	}

	n, err := port.Read(buf)
	if err != nil {
		s.disconnect(port, err)
		return n, fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return n, nil
}

// Write sends typed input to the device.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	port, connected := s.port, s.connected
	s.mu.Unlock()

	if !connected {
		return 0, ErrDisconnected
	}

	n, err := port.Write(p)
	if err != nil {
		s.disconnect(port, err)
		return n, fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return n, nil
}

func (s *Session) disconnect(port Port, cause error) {
	s.mu.Lock()
	if s.port != port || !s.connected {
		s.mu.Unlock()
		return
	}
	s.port = nil
	s.connected = false
	closed := s.closed
	s.mu.Unlock()

	_ = port.Close()
	if !closed {
		s.logger.Warn().Err(cause).Msg("Serial port disconnected")
	}
}

// Reconnect makes one attempt to reopen the port, running a pending reset on success.
// It is a no-op while connected.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrDisconnected
	}
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.connect(); err != nil {
		return err
	}
	s.logger.Info().Msg("Serial port reconnected")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetPending && s.connected {
		return s.resetLocked(ctx)
	}
	return nil
}

// Close releases the port. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.connected = false
	s.closed = true
	s.mu.Unlock()

	if port == nil {
		return nil
	}
	s.logger.Debug().Msg("Closing serial port")
	return port.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
