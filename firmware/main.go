//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"

	"github.com/itohio/gain/pkg/conditioner"
	"github.com/itohio/gain/pkg/link"
)

var (
	adcs [conditioner.Channels]machine.ADC
	uart = machine.UART0
)

func main() {
	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}

	// Configure slider pins and set up one ADC per slider
	for i, pin := range PIN_SLIDERS {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		adcs[i] = machine.ADC{Pin: pin}
		adcs[i].Configure(adcConfig)
	}

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// Main loop: sample, condition and send changed sliders every link.SampleInterval
	link.New(link.SamplerFunc(readSlider), uart).Run()
}

// readSlider returns the 10-bit reading of slider ch.
func readSlider(ch int) uint16 {
	return adcs[ch].Get() >> ADC_SHIFT
}
