// Package constants defines shared configuration constants and defaults.
package constants

import "time"

// Serial timing defaults.
const (
	// DefaultReadTimeout bounds a single serial read so the loop can poll the keyboard.
	DefaultReadTimeout = 20 * time.Millisecond

	// DefaultReconnectInterval is the fixed delay between reopen attempts after a disconnect.
	DefaultReconnectInterval = 500 * time.Millisecond

	// DefaultOpenBackoff is the initial backoff between attempts to open a busy port.
	DefaultOpenBackoff = 200 * time.Millisecond

	// DefaultKeyPollTimeout bounds a single keyboard poll.
	DefaultKeyPollTimeout = 50 * time.Millisecond

	// DefaultPartialLineTimeout is how long an unterminated line waits before it is shown.
	DefaultPartialLineTimeout = 5 * time.Second
)

// Buffer sizes.
const (
	// DefaultReadChunkSize is the size of the buffer handed to each serial read.
	DefaultReadChunkSize = 4 << 10

	// DefaultCommandQueueSize bounds the keyboard command queue.
	DefaultCommandQueueSize = 64

	// MaxLineLength caps a buffered partial line; longer runs are flushed as-is.
	MaxLineLength = 64 << 10
)
