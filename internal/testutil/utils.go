package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger with the same prefix the server binary
// uses, so test output reads like production logs.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[nexus] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}
