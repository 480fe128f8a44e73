package diag

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/itohio/algaemon/pkg/control"
)

func newPipeSerial(t *testing.T) (*Serial, *io.PipeWriter, *serial.Mode) {
	t.Helper()
	r, w := io.Pipe()
	var opened *serial.Mode

	d := New("/dev/null", 0, 4)
	d.open = func(port string, mode *serial.Mode) (io.ReadCloser, error) {
		opened = mode
		return r, nil
	}
	require.NoError(t, d.Connect())
	return d, w, opened
}

func receive(t *testing.T, ch <-chan Reading) Reading {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "channel closed")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no reading received")
	}
	return Reading{}
}

func TestSerialReadsReports(t *testing.T) {
	d, w, mode := newPipeSerial(t)
	assert.Equal(t, DefaultBaudRate, mode.BaudRate)
	assert.True(t, d.IsConnected())

	go func() {
		io.WriteString(w, "Algae Medium Monitor Starting...\r\n\r\n")
		io.WriteString(w, "3000,253,700,P,1\r\n")
		io.WriteString(w, "6000,-12,")
		io.WriteString(w, "1400,T,0\n")
	}()

	first := receive(t, d.Readings())
	assert.Equal(t, 3*time.Second, first.Uptime)
	assert.Equal(t, control.PH, first.Mode)
	assert.InDelta(t, 25.3, first.Values.Temperature, 1e-5)
	assert.True(t, first.Air)
	assert.False(t, first.Timestamp.IsZero())

	second := receive(t, d.Readings())
	assert.Equal(t, 6*time.Second, second.Uptime)
	assert.InDelta(t, -1.2, second.Values.Temperature, 1e-5)
	assert.InDelta(t, 14.0, second.Values.PH, 1e-5)

	require.NoError(t, d.Close())
	assert.False(t, d.IsConnected())

	_, ok := <-d.Readings()
	assert.False(t, ok, "Channel should be closed")
}

func TestSerialEOF(t *testing.T) {
	d, w, _ := newPipeSerial(t)
	w.Close()

	_, ok := <-d.Readings()
	assert.False(t, ok)
	assert.NoError(t, d.Close())
}

func TestSerialConnectErrors(t *testing.T) {
	d := New("COM99", 115200, 0)
	d.open = func(string, *serial.Mode) (io.ReadCloser, error) {
		return nil, errors.New("no such port")
	}
	err := d.Connect()
	assert.ErrorContains(t, err, "COM99")
	assert.False(t, d.IsConnected())

	d2, _, _ := newPipeSerial(t)
	assert.Error(t, d2.Connect(), "already connected")
	require.NoError(t, d2.Close())
	assert.Error(t, d2.Connect(), "closed devices cannot reconnect")
	assert.NoError(t, d2.Close())
}
