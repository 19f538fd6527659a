// File: internal/session/main_test.go
package session

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies no goroutines leak from the capture and export flows;
// every poll loop and timer must wind down with its call.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
