//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// One-wire temperature sensor data line (external 4.7k pull-up)
	PIN_ONEWIRE = machine.D2

	// 74HC595 shift register feeding the segment lines
	PIN_SHIFT_DATA  = machine.D8  // PB0
	PIN_SHIFT_LATCH = machine.D9  // PB1
	PIN_SHIFT_CLOCK = machine.D10 // PB2

	// Common cathode digit selects, left to right, active low
	PIN_DIGIT1 = machine.D11 // PB3
	PIN_DIGIT2 = machine.D12 // PB4
	PIN_DIGIT3 = machine.D3
	PIN_DIGIT4 = machine.D4

	// Air pump relay
	PIN_AIR = machine.D5

	// Serial configuration
	// Format "uptime_ms,temp_decideg,ph_centi,mode,air\n", at most ~24 bytes
	// once per display dwell. 9600 baud leaves ample headroom.
	UART_BAUD_RATE = 9600

	// Timer0-style refresh: 16 MHz, prescaler 1024, 256 counts per overflow
	CPU_FREQUENCY   = 16_000_000
	TIMER_PRESCALER = 1024

	// Schedule
	DWELL           = 3 * time.Second
	AIR_PERIOD      = time.Minute
	AIR_ON          = 30 * time.Second
	CONVERSION_TIME = 750 * time.Millisecond
)
