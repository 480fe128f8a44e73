// Package diag reads the monitor's diagnostics stream: one CSV line per
// display mode switch, emitted on the board's UART.
package diag

import (
	"time"

	"github.com/itohio/algaemon/pkg/control"
)

// Reading is a report received from the board.
type Reading struct {
	Timestamp time.Time // Host receive time
	control.Report
}

// Device defines the interface for monitor boards (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Readings() <-chan Reading
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
