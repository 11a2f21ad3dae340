package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	portName    string
	useSim      bool
	backendName string
	metricsAddr string
	logLevel    string
	logFormat   string
)

// rootCmd runs the volume pipeline when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "gain",
	Short: "Slider bank volume controller",
	Long: `gain reads slider positions from a serial slider board and applies
them as volume levels to the master output, the focused application,
named applications or every application nothing else controls.

The mapping lives in a YAML file that is reloaded while running.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, args)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the volume pipeline",
	Long: `Connect to the slider board and route slider events to the audio
backend until interrupted. A lost connection is retried every
retry_delay; configuration edits apply without a restart.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "gain.yaml", "configuration file")
	flags.StringVarP(&portName, "port", "p", "", "serial port override (e.g. COM3 or /dev/ttyACM0)")
	flags.BoolVar(&useSim, "sim", false, "use the simulated slider board")
	flags.StringVar(&backendName, "backend", "pulse", "audio backend: pulse or mock")
	flags.StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address (overrides metrics.listen)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "console", "log format: console or json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(monitorCmd)
}

// signalContext is cancelled on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signalContext()
	defer cancel()

	return p.Run(ctx)
}
