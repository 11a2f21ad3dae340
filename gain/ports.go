package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/itohio/gain/pkg/sim"
	"github.com/itohio/gain/pkg/transport"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports with their USB details. The VID, PID, serial
number and product columns are the values connection filters match on.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var tr transport.Transport = transport.Serial{}
		if useSim {
			tr = sim.New()
		}

		endpoints, err := tr.Enumerate()
		if err != nil {
			return err
		}
		if len(endpoints) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PORT\tUSB\tVID\tPID\tSERIAL\tPRODUCT")
		for _, e := range endpoints {
			usb := "no"
			if e.USB {
				usb = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Name, usb, e.VID, e.PID, e.SerialNumber, e.Product)
		}
		return w.Flush()
	},
}
