package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unigetui/engine/internal/options"
	"github.com/unigetui/engine/internal/packages"
)

// optionsFlags are the editable fields of InstallationOptions. Only flags
// given on the command line are applied.
type optionsFlags struct {
	skipHashCheck bool
	interactive   bool
	runAsAdmin    bool
	preRelease    bool
	removeData    bool
	version       string
	architecture  string
	scope         string
	location      string
	params        []string
}

func (f *optionsFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.skipHashCheck, "skip-hash-check", false, "skip installer hash verification")
	fl.BoolVar(&f.interactive, "interactive", false, "run the installer interactively")
	fl.BoolVar(&f.runAsAdmin, "run-as-admin", false, "run the update elevated")
	fl.BoolVar(&f.preRelease, "pre-release", false, "allow pre-release versions")
	fl.BoolVar(&f.removeData, "remove-data-on-uninstall", false, "remove user data when uninstalling")
	fl.StringVar(&f.version, "version", "", "pin this version (empty clears)")
	fl.StringVar(&f.architecture, "architecture", "", "x86, x64, arm or arm64 (empty clears)")
	fl.StringVar(&f.scope, "scope", "", "user or machine (empty clears)")
	fl.StringVar(&f.location, "location", "", "custom install location (empty clears)")
	fl.StringSliceVar(&f.params, "param", nil, "custom installer parameter, repeatable")
}

func (f *optionsFlags) apply(cmd *cobra.Command, o *options.InstallationOptions) error {
	changed := cmd.Flags().Changed
	if changed("skip-hash-check") {
		o.SkipHashCheck = f.skipHashCheck
	}
	if changed("interactive") {
		o.Interactive = f.interactive
	}
	if changed("run-as-admin") {
		o.RunAsAdmin = f.runAsAdmin
	}
	if changed("pre-release") {
		o.PreRelease = f.preRelease
	}
	if changed("remove-data-on-uninstall") {
		o.RemoveDataOnUninstall = f.removeData
	}
	if changed("version") {
		o.Version = f.version
	}
	if changed("location") {
		o.CustomInstallLocation = f.location
	}
	if changed("param") {
		o.CustomParameters = append([]string{}, f.params...)
	}
	if changed("architecture") {
		o.Architecture = nil
		if f.architecture != "" {
			arch, ok := options.ParseArchitecture(f.architecture)
			if !ok {
				return fmt.Errorf("unknown architecture %q", f.architecture)
			}
			o.Architecture = &arch
		}
	}
	if changed("scope") {
		o.InstallScope = nil
		if f.scope != "" {
			scope, ok := packages.ParseScope(f.scope)
			if !ok {
				return fmt.Errorf("unknown scope %q", f.scope)
			}
			o.InstallScope = &scope
		}
	}
	return nil
}

// withPackage resolves <manager> <package-id> into a package the options
// store can key on.
func withPackage(fn func(cmd *cobra.Command, s *stores, pkg *packages.Package) error) func(*cobra.Command, []string) error {
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
		pkg, err := packages.New(args[1], args[1], "", packages.Source{}, m, packages.ScopeUser)
		if err != nil {
			return err
		}
		return fn(cmd, s, pkg)
	}
}

func printOptions(cmd *cobra.Command, o *options.InstallationOptions) error {
	view := struct {
		SkipHashCheck         bool     `json:"skipHashCheck"`
		Interactive           bool     `json:"interactive"`
		RunAsAdmin            bool     `json:"runAsAdmin"`
		PreRelease            bool     `json:"preRelease"`
		RemoveDataOnUninstall bool     `json:"removeDataOnUninstall"`
		Version               string   `json:"version,omitempty"`
		Architecture          string   `json:"architecture,omitempty"`
		Scope                 string   `json:"scope,omitempty"`
		CustomInstallLocation string   `json:"customInstallLocation,omitempty"`
		CustomParameters      []string `json:"customParameters"`
	}{
		SkipHashCheck:         o.SkipHashCheck,
		Interactive:           o.Interactive,
		RunAsAdmin:            o.RunAsAdmin,
		PreRelease:            o.PreRelease,
		RemoveDataOnUninstall: o.RemoveDataOnUninstall,
		Version:               o.Version,
		CustomInstallLocation: o.CustomInstallLocation,
		CustomParameters:      o.CustomParameters,
	}
	if o.Architecture != nil {
		view.Architecture = o.Architecture.String()
	}
	if o.InstallScope != nil {
		view.Scope = o.InstallScope.String()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func newOptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Show and edit per-package installation options",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <manager> <package-id>",
		Short: "Print the saved options of a package",
		Args:  cobra.ExactArgs(2),
		RunE: withPackage(func(cmd *cobra.Command, s *stores, pkg *packages.Package) error {
			return printOptions(cmd, s.options.Load(pkg, false))
		}),
	})

	var flags optionsFlags
	set := &cobra.Command{
		Use:   "set <manager> <package-id>",
		Short: "Change the saved options of a package",
		Args:  cobra.ExactArgs(2),
		RunE: withPackage(func(cmd *cobra.Command, s *stores, pkg *packages.Package) error {
			o := s.options.Load(pkg, false)
			if err := flags.apply(cmd, o); err != nil {
				return err
			}
			if err := s.options.Save(pkg, o); err != nil {
				return err
			}
			return printOptions(cmd, o)
		}),
	}
	flags.register(set)
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <manager> <package-id>",
		Short: "Forget the saved options of a package",
		Args:  cobra.ExactArgs(2),
		RunE: withPackage(func(cmd *cobra.Command, s *stores, pkg *packages.Package) error {
			return s.options.Delete(pkg)
		}),
	})

	return cmd
}
