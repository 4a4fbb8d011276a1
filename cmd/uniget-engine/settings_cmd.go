package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// withSettings opens the stores for a settings subcommand.
func withSettings(fn func(cmd *cobra.Command, s *stores, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openStores()
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd, s, args)
	}
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read, change, export and import settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the settings that are set",
		Args:  cobra.NoArgs,
		RunE: withSettings(func(cmd *cobra.Command, s *stores, _ []string) error {
			names, err := s.settings.Names()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %q\n", name, s.settings.Value(name))
			}
			return nil
		}),
	})

	var off bool
	set := &cobra.Command{
		Use:   "set <name> [value]",
		Short: "Turn a setting on, optionally with a value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withSettings(func(cmd *cobra.Command, s *stores, args []string) error {
			switch {
			case off:
				return s.settings.Set(args[0], false)
			case len(args) == 2:
				return s.settings.SetValue(args[0], args[1])
			default:
				return s.settings.Set(args[0], true)
			}
		}),
	}
	set.Flags().BoolVar(&off, "off", false, "turn the setting off")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write every setting as JSON to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSettings(func(cmd *cobra.Command, s *stores, args []string) error {
			data, err := s.settings.Export()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return os.WriteFile(args[0], data, 0o644)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace every setting with an export",
		Args:  cobra.ExactArgs(1),
		RunE: withSettings(func(cmd *cobra.Command, s *stores, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return s.settings.Import(data)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete every setting",
		Args:  cobra.NoArgs,
		RunE: withSettings(func(cmd *cobra.Command, s *stores, _ []string) error {
			return s.settings.Reset()
		}),
	})

	return cmd
}
