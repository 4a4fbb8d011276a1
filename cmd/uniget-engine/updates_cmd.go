package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/unigetui/engine/internal/logging"
	"github.com/unigetui/engine/internal/notify"
	"github.com/unigetui/engine/internal/packages"
)

const defaultOperationWait = 30 * time.Minute

func newUpdatesCmd() *cobra.Command {
	var (
		auto        bool
		showIgnored bool
		wait        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "List available updates and notify about them",
		Long: `Queries every enabled package manager, drops updates that are ignored or
paused, and shows the updates notification. With --auto, or when automatic
updates are turned on in the settings, everything found is updated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			e, err := openEngine(s, engineOptions{forceAutoUpdate: auto})
			if err != nil {
				s.Close()
				return err
			}
			defer e.Close(wait)

			e.connectBridge(cmd.Context())
			found, err := e.loader.Reload(cmd.Context())
			if err != nil {
				log.Warn("some package managers failed", logging.KeyError, err)
			}

			out := cmd.OutOrStdout()
			printUpgrades(out, found)
			if showIgnored {
				if ignored := e.loader.Ignored(); len(ignored) > 0 {
					fmt.Fprintln(out, "\nIgnored or paused:")
					printUpgrades(out, ignored)
				}
			}
			if pending := e.queue.Pending(); pending > 0 {
				fmt.Fprintf(out, "\nWaiting for %d update operation(s)...\n", pending)
			}
			if len(found) == 0 && err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "update everything found, regardless of the saved setting")
	cmd.Flags().BoolVar(&showIgnored, "show-ignored", false, "also list updates hidden by ignore or pause rules")
	cmd.Flags().DurationVar(&wait, "wait", defaultOperationWait, "how long to wait for running updates before exiting")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var (
		all     bool
		manager string
		wait    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "update [package-id]",
		Short: "Update one package, one manager's packages or everything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all && manager == "" {
				return fmt.Errorf("give a package id, --manager or --all")
			}

			s, err := openStores()
			if err != nil {
				return err
			}
			e, err := openEngine(s, engineOptions{})
			if err != nil {
				s.Close()
				return err
			}
			defer e.Close(wait)

			if _, err := e.loader.Reload(cmd.Context()); err != nil {
				log.Warn("some package managers failed", logging.KeyError, err)
			}

			out := cmd.OutOrStdout()
			switch {
			case len(args) == 1:
				if err := e.loader.UpdatePackageForID(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Updating %s\n", args[0])
			case manager != "":
				n, err := e.loader.UpdateAllForManager(cmd.Context(), manager)
				fmt.Fprintf(out, "Queued %d update(s) for %s\n", n, manager)
				if err != nil {
					return err
				}
			default:
				n, err := e.loader.UpdateAll(cmd.Context())
				fmt.Fprintf(out, "Queued %d update(s)\n", n)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "update every available package")
	cmd.Flags().StringVar(&manager, "manager", "", "update every available package of this manager")
	cmd.Flags().DurationVar(&wait, "wait", defaultOperationWait, "how long to wait for running updates before exiting")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check for updates periodically until interrupted",
		Long: `Reloads the update list every --interval. When a GUI bridge is configured
the front-end's notification buttons are handled here: "update-all" queues
every listed update.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval < time.Minute {
				return fmt.Errorf("interval must be at least one minute, got %s", interval)
			}

			s, err := openStores()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var e *engine
			onAction := func(action string) {
				switch action {
				case notify.ActionUpdateAll:
					n, err := e.loader.UpdateAll(ctx)
					if err != nil {
						log.Warn("update all failed", logging.KeyError, err)
					}
					log.Info("updates queued from notification", logging.KeyCount, n)
				case notify.ActionShowUpdates:
					printUpgrades(out, e.loader.Upgrades())
				default:
					log.Debug("ignoring notification action", "action", action)
				}
			}
			e, err = openEngine(s, engineOptions{onAction: onAction})
			if err != nil {
				s.Close()
				return err
			}
			defer e.Close(defaultOperationWait)

			if e.bridge != nil {
				go e.bridge.Run(ctx)
			}
			return watch(ctx, interval, func(ctx context.Context) {
				found, err := e.loader.Reload(ctx)
				if err != nil {
					log.Warn("some package managers failed", logging.KeyError, err)
				}
				log.Info("update check finished", logging.KeyCount, len(found))
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "time between update checks")
	return cmd
}

// watch calls check immediately and then every interval until ctx ends.
func watch(ctx context.Context, interval time.Duration, check func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			check(ctx)
		}
	}
}

func printUpgrades(w io.Writer, pkgs []*packages.UpgradablePackage) {
	if len(pkgs) == 0 {
		fmt.Fprintln(w, "No updates found.")
		return
	}
	fmt.Fprintf(w, "%-32s %-40s %-16s %-16s %s\n", "Name", "Id", "Version", "Available", "Manager")
	for _, p := range pkgs {
		fmt.Fprintf(w, "%-32s %-40s %-16s %-16s %s\n", p.Name(), p.ID(), p.Version(), p.NewVersion(), p.Manager().DisplayName)
	}
}
