//go:build tinygo

package main

import "machine"

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // Hardware resolution; readings are reduced to 10 bits

	// machine.ADC.Get scales every reading to 16 bits.
	ADC_SHIFT = 16 - 10

	// Serial configuration
	// Worst case all 6 sliders change every 25ms: 6 frames * 5 bytes * 40 passes/sec
	// = 1,200 bytes/sec. UART 8N1: 10 bits/byte = 12,000 baud minimum.
	// 57600 provides ~4.8x headroom.
	UART_BAUD_RATE = 57600
)

// Slider pins, index = slider id.
var PIN_SLIDERS = [...]machine.Pin{
	machine.A0,
	machine.A1,
	machine.A2,
	machine.A3,
	machine.A4,
	machine.A5,
}
