package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/algaemon/pkg/control"
	"github.com/itohio/algaemon/pkg/panel"
	"github.com/itohio/algaemon/pkg/sample"
)

// statusBar shows the latest reading below the trend scope.
type statusBar struct {
	temperature *widget.Label
	ph          *widget.Label
	mode        *widget.Label
	air         *widget.Label
	uptime      *widget.Label
}

func newStatusBar() *statusBar {
	b := &statusBar{
		temperature: widget.NewLabel(""),
		ph:          widget.NewLabel(""),
		mode:        widget.NewLabel(""),
		air:         widget.NewLabel(""),
		uptime:      widget.NewLabel(""),
	}
	b.disconnected()
	return b
}

func (b *statusBar) container() fyne.CanvasObject {
	return container.NewHBox(b.temperature, b.ph, b.mode, b.air, b.uptime)
}

// update shows s. Must run on the main thread.
func (b *statusBar) update(s sample.Sample) {
	b.temperature.SetText(fmt.Sprintf("Temperature: %.1f °C", s.Celsius()))
	b.ph.SetText(fmt.Sprintf("pH: %.2f", s.PH))
	b.mode.SetText("Showing: " + s.Mode.String())
	if s.Air {
		b.air.SetText("Air: on")
		b.air.Importance = widget.HighImportance
	} else {
		b.air.SetText("Air: off")
		b.air.Importance = widget.MediumImportance
	}
	b.air.Refresh()
	b.uptime.SetText("Uptime: " + s.Uptime.String())
}

func (b *statusBar) disconnected() {
	b.temperature.SetText("Temperature: --")
	b.ph.SetText("pH: --")
	b.mode.SetText("Showing: --")
	b.air.SetText("Air: --")
	b.air.Importance = widget.MediumImportance
	b.air.Refresh()
	b.uptime.SetText("Disconnected")
}

// showSample mirrors what the board displays right after the report.
func showSample(d *panel.SegmentDisplay, s sample.Sample) {
	if s.Mode == control.PH {
		d.SetValue(float32(s.PH))
		return
	}
	d.SetValue(float32(s.Celsius()))
}
