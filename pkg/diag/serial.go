package diag

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/itohio/algaemon/pkg/control"
)

const (
	// DefaultBaudRate is the firmware's UART baud rate.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
)

// Serial represents a connection to the monitor board.
type Serial struct {
	port     string
	baudRate int

	open     func(port string, mode *serial.Mode) (io.ReadCloser, error)
	conn     io.ReadCloser
	readings chan Reading
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	connected bool
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		open:     openPort,
		readings: make(chan Reading, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func openPort(port string, mode *serial.Mode) (io.ReadCloser, error) {
	return serial.Open(port, mode)
}

// Ports returns the names of available serial ports.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// Connect opens the serial port and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.done != nil {
		return fmt.Errorf("device closed")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	conn, err := d.open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = conn
	d.connected = true
	d.done = make(chan struct{})

	go d.readLines(conn)

	return nil
}

// Close closes the port. The readings channel is closed once the reader
// has stopped.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()
	if err := d.conn.Close(); err != nil {
		log.Printf("Error closing serial port: %v", err)
	}
	d.connected = false
	done := d.done
	d.mu.Unlock()

	<-done
	return nil
}

// Readings returns the channel of parsed reports.
func (d *Serial) Readings() <-chan Reading {
	return d.readings
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines reads lines from r until it fails or the device is closed.
// Lines that do not parse (boot banners, partial lines) are logged and
// skipped.
func (d *Serial) readLines(r io.Reader) {
	defer close(d.done)
	defer close(d.readings)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		report, err := control.ParseReport(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}

		select {
		case d.readings <- Reading{Timestamp: time.Now(), Report: report}:
		case <-d.ctx.Done():
			return
		default:
			log.Printf("Readings channel full, dropping reading")
		}
	}

	if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}
