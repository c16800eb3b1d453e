package main

import (
	"barcodedrop/internal/di"
	"barcodedrop/internal/structures"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flags structures.CliFlags

var rootCmd = &cobra.Command{
	Use:   "barcodedrop",
	Short: "BarcodeDrop keeps a live list of your scans and copies the newest one",
	Long: `BarcodeDrop follows the scans recorded for one user, keeps the list in
sync through the live channel and puts every new barcode on the clipboard.

A local HTTP API exposes the list, export, delete and settings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func run(cmd *cobra.Command, _ []string) error {
	app, err := di.InitApp(&flags)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return app.Run(cmd.Context())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "config/config.yml", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&flags.DebugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&flags.Username, "user", "u", "", "user whose scans are followed, overrides the config")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
