package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "uniget-engine",
	Short: "UniGetUI update engine",
	Long: `uniget-engine finds package updates across Winget, Chocolatey and Scoop,
applies the user's ignore and pause rules, notifies about what is left and
optionally updates it.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "uniget-engine v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/UniGetUI/engine.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newUpdatesCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newIgnoreCmd())
	rootCmd.AddCommand(newPauseCmd())
	rootCmd.AddCommand(newOptionsCmd())
	rootCmd.AddCommand(newSettingsCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
