package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/algaemon/pkg/sensor"
)

func TestAppendLine(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{
			name: "temperature shown, air on",
			report: Report{
				Uptime: 12 * time.Second,
				Values: sensor.Values{Temperature: 25.3, PH: 7},
				Mode:   Temperature,
				Air:    true,
			},
			want: "12000,253,700,T,1\n",
		},
		{
			name: "negative temperature",
			report: Report{
				Uptime: 3*time.Second + 999*time.Microsecond,
				Values: sensor.Values{Temperature: -5.5, PH: 14},
				Mode:   PH,
			},
			want: "3000,-55,1400,P,0\n",
		},
		{
			name:   "zero",
			report: Report{},
			want:   "0,0,0,T,0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.report.AppendLine(nil)))
		})
	}
}

func TestAppendLineReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 64)
	out := Report{Uptime: time.Second}.AppendLine(buf)
	assert.Equal(t, "1000,0,0,T,0\n", string(out))
	assert.Same(t, &buf[:1][0], &out[0])
}

func TestParseReport(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Report
		wantErr bool
	}{
		{
			name: "valid line",
			line: "12000,253,700,T,1",
			want: Report{
				Uptime: 12 * time.Second,
				Values: sensor.Values{Temperature: 25.3, PH: 7},
				Mode:   Temperature,
				Air:    true,
			},
		},
		{
			name: "valid line with CRLF",
			line: "6000,-101,812,P,0\r\n",
			want: Report{
				Uptime: 6 * time.Second,
				Values: sensor.Values{Temperature: -10.1, PH: 8.12},
				Mode:   PH,
			},
		},
		{name: "wrong number of fields", line: "12000,253,700,T", wantErr: true},
		{name: "too many fields", line: "12000,253,700,T,1,extra", wantErr: true},
		{name: "negative uptime", line: "-1,253,700,T,1", wantErr: true},
		{name: "temperature overflow", line: "0,40000,700,T,1", wantErr: true},
		{name: "ph out of range", line: "0,253,1401,T,1", wantErr: true},
		{name: "bad mode", line: "0,253,700,X,1", wantErr: true},
		{name: "bad air", line: "0,253,700,T,yes", wantErr: true},
		{name: "empty", line: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReport(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportLineRoundTrip(t *testing.T) {
	r := Report{
		Uptime: 93 * time.Second,
		Values: sensor.Values{Temperature: 21.7, PH: 6.45},
		Mode:   PH,
		Air:    true,
	}

	got, err := ParseReport(string(r.AppendLine(nil)))
	require.NoError(t, err)
	assert.Equal(t, r, got)
}
