package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unigetui/engine/internal/ignore"
	"github.com/unigetui/engine/internal/packages"
	"github.com/unigetui/engine/internal/pause"
)

// withLedger opens the stores, resolves <manager> and runs fn with the
// package's ignore key.
func withLedger(fn func(cmd *cobra.Command, s *stores, key string, rest []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openStores()
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := s.manager(args[0])
		if err != nil {
			return err
		}
		return fn(cmd, s, packages.IgnoreKey(m.Name, args[1]), args[2:])
	}
}

func newIgnoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage ignored package updates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <manager> <package-id>",
		Short: "Ignore every future update of a package",
		Args:  cobra.ExactArgs(2),
		RunE: withLedger(func(cmd *cobra.Command, s *stores, key string, _ []string) error {
			if err := s.ledger.Add(key, ignore.Wildcard); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ignoring all updates of %s\n", key)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "skip <manager> <package-id> <version>",
		Short: "Skip one version of a package",
		Args:  cobra.ExactArgs(3),
		RunE: withLedger(func(cmd *cobra.Command, s *stores, key string, rest []string) error {
			if err := s.ledger.Add(key, rest[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Skipping version %s of %s\n", rest[0], key)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <manager> <package-id>",
		Aliases: []string{"rm"},
		Short:   "Stop ignoring, skipping or pausing a package",
		Args:    cobra.ExactArgs(2),
		RunE: withLedger(func(cmd *cobra.Command, s *stores, key string, _ []string) error {
			return s.ledger.Remove(key)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check <manager> <package-id> [version]",
		Short: "Report whether an update is ignored",
		Args:  cobra.RangeArgs(2, 3),
		RunE: withLedger(func(cmd *cobra.Command, s *stores, key string, rest []string) error {
			version := ""
			if len(rest) > 0 {
				version = rest[0]
			}
			out := cmd.OutOrStdout()
			value := s.ledger.IgnoredVersion(key)
			switch {
			case ignore.Snooze(value, time.Now()) == ignore.SnoozeActive:
				until, _ := ignore.ParseSnooze(value, time.Local)
				fmt.Fprintf(out, "%s is paused until %s\n", key, until.Format(ignore.DateLayout))
			case s.ledger.IsIgnored(key, version):
				fmt.Fprintf(out, "%s is ignored (%s)\n", key, value)
			default:
				fmt.Fprintf(out, "%s is not ignored\n", key)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every ignore, skip and pause rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			entries := s.ledger.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No ignored updates.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%-60s %s\n", e.Key, describeRule(e.Value))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.ledger.Clear()
		},
	})

	return cmd
}

func describeRule(value string) string {
	if value == ignore.Wildcard {
		return "all versions"
	}
	switch ignore.Snooze(value, time.Now()) {
	case ignore.SnoozeActive:
		return "paused until " + value[1:]
	case ignore.SnoozeExpired:
		return "pause expired on " + value[1:]
	}
	return "version " + value
}

func newPauseCmd() *cobra.Command {
	var days, weeks, months int
	cmd := &cobra.Command{
		Use:   "pause <manager> <package-id>",
		Short: "Hide updates of a package for a while",
		Long: `Hides updates of a package until the pause ends. Exactly one of --days,
--weeks or --months is used; a month counts as four weeks.`,
		Args: cobra.ExactArgs(2),
		RunE: withLedger(func(cmd *cobra.Command, s *stores, key string, _ []string) error {
			d, err := pauseDuration(days, weeks, months)
			if err != nil {
				return err
			}
			now := time.Now()
			if err := s.ledger.Add(key, d.IgnoreValue(now)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Paused %s for %s (until %s)\n", key, d, d.DateFrom(now))
			return nil
		}),
	}
	cmd.Flags().IntVar(&days, "days", 0, "pause for this many days")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "pause for this many weeks")
	cmd.Flags().IntVar(&months, "months", 0, "pause for this many months")
	return cmd
}

func pauseDuration(days, weeks, months int) (pause.Duration, error) {
	set := 0
	var d pause.Duration
	for _, f := range []struct {
		n   int
		set func(int)
	}{
		{days, d.SetDays},
		{weeks, d.SetWeeks},
		{months, d.SetMonths},
	} {
		if f.n < 0 {
			return d, fmt.Errorf("pause length cannot be negative")
		}
		if f.n > 0 {
			f.set(f.n)
			set++
		}
	}
	if set != 1 {
		return d, fmt.Errorf("give exactly one of --days, --weeks or --months")
	}
	return d, nil
}
