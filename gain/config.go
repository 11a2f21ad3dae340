package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/itohio/gain/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration",
	Long: `Write the default configuration to the --config path. Slider 0 controls
the master output, slider 1 the focused application and slider 2 every
application no other slider names.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return fmt.Errorf("failed to read 'force' flag: %w", err)
		}

		if _, err := os.Stat(cfgFile); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", cfgFile)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if err := config.Default().Save(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", cfgFile)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		snap := config.NewSnapshot(cfg, time.Time{})
		fmt.Printf("%s: volume_step %v, %d sliders\n", cfgFile, cfg.General.VolumeStep, len(snap.Mappings))
		for _, s := range cfg.Sliders {
			target, _ := snap.Target(s.ID)
			fmt.Printf("  slider %d: %s\n", s.ID, target)
		}
		if len(snap.NamedApps) > 0 {
			fmt.Printf("  named apps: %v\n", snap.NamedApps)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}
