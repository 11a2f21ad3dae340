// gain turns a bank of analog sliders into per-application volume control.
//
// Usage:
//
//	gain                          # run with ./gain.yaml
//	gain run --config desk.yaml   # run with another configuration
//	gain run --sim --backend mock # run against the simulated board
//	gain monitor                  # run and show the sliders in a window
//	gain ports                    # list serial ports
//	gain config init              # write a default configuration
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
