// Package testutil provides testing utilities for mcumon packages.
package testutil

import (
	"context"
	"time"
)

// NewTestContext creates a test context with a 10-second timeout, enough for any
// session loop test to reach a terminal state.
func NewTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
