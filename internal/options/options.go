// Package options persists per-package installation preferences, one JSON
// file per package.
package options

import (
	"fmt"
	"strings"

	"github.com/unigetui/engine/internal/packages"
)

// SchemaVersion is written into every options file.
const SchemaVersion = 1

// Architecture is a requested installer architecture.
type Architecture int

const (
	ArchX86 Architecture = iota
	ArchX64
	ArchArm
	ArchArm64
)

var archNames = map[Architecture]string{
	ArchX86:   "x86",
	ArchX64:   "x64",
	ArchArm:   "arm",
	ArchArm64: "arm64",
}

func (a Architecture) String() string {
	if name, ok := archNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Architecture(%d)", int(a))
}

// ParseArchitecture accepts the serialized names plus common aliases.
func ParseArchitecture(s string) (Architecture, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x86", "386", "i386":
		return ArchX86, true
	case "x64", "amd64", "x86_64":
		return ArchX64, true
	case "arm":
		return ArchArm, true
	case "arm64", "aarch64":
		return ArchArm64, true
	}
	return 0, false
}

// InstallationOptions holds what the user chose for one package. Nil
// Architecture and InstallScope mean "let the manager decide".
type InstallationOptions struct {
	SkipHashCheck         bool
	Interactive           bool
	RunAsAdmin            bool
	Version               string
	Architecture          *Architecture
	InstallScope          *packages.Scope
	CustomParameters      []string
	RemoveDataOnUninstall bool
	PreRelease            bool
	CustomInstallLocation string
}

// Default returns options with every field unset.
func Default() *InstallationOptions {
	return &InstallationOptions{CustomParameters: []string{}}
}

func (o *InstallationOptions) String() string {
	arch, scope := "", ""
	if o.Architecture != nil {
		arch = o.Architecture.String()
	}
	if o.InstallScope != nil {
		scope = o.InstallScope.String()
	}
	return fmt.Sprintf("<InstallationOptions: SkipHashCheck=%t;Interactive=%t;RunAsAdmin=%t;Version=%s;"+
		"Architecture=%s;InstallScope=%s;CustomInstallLocation=%s;CustomParameters=%s;RemoveDataOnUninstall=%t;PreRelease=%t>",
		o.SkipHashCheck, o.Interactive, o.RunAsAdmin, o.Version, arch, scope,
		o.CustomInstallLocation, strings.Join(o.CustomParameters, ","), o.RemoveDataOnUninstall, o.PreRelease)
}

// serialized is the on-disk form. Unknown fields are ignored on read and
// missing ones keep their zero value.
type serialized struct {
	SchemaVersion         int      `json:"schemaVersion"`
	SkipHashCheck         bool     `json:"skipHashCheck"`
	InteractiveInstall    bool     `json:"interactiveInstallation"`
	RunAsAdministrator    bool     `json:"runAsAdministrator"`
	Version               string   `json:"version"`
	Architecture          string   `json:"architecture"`
	InstallationScope     string   `json:"installationScope"`
	CustomParameters      []string `json:"customParameters"`
	RemoveDataOnUninstall bool     `json:"removeDataOnUninstall"`
	PreRelease            bool     `json:"preRelease"`
	CustomInstallLocation string   `json:"customInstallLocation"`
}

func (o *InstallationOptions) toSerialized() serialized {
	s := serialized{
		SchemaVersion:         SchemaVersion,
		SkipHashCheck:         o.SkipHashCheck,
		InteractiveInstall:    o.Interactive,
		RunAsAdministrator:    o.RunAsAdmin,
		Version:               o.Version,
		CustomParameters:      o.CustomParameters,
		RemoveDataOnUninstall: o.RemoveDataOnUninstall,
		PreRelease:            o.PreRelease,
		CustomInstallLocation: o.CustomInstallLocation,
	}
	if s.CustomParameters == nil {
		s.CustomParameters = []string{}
	}
	if o.Architecture != nil {
		s.Architecture = o.Architecture.String()
	}
	if o.InstallScope != nil {
		s.InstallationScope = o.InstallScope.String()
	}
	return s
}

func fromSerialized(s serialized) *InstallationOptions {
	o := &InstallationOptions{
		SkipHashCheck:         s.SkipHashCheck,
		Interactive:           s.InteractiveInstall,
		RunAsAdmin:            s.RunAsAdministrator,
		Version:               s.Version,
		CustomParameters:      s.CustomParameters,
		RemoveDataOnUninstall: s.RemoveDataOnUninstall,
		PreRelease:            s.PreRelease,
		CustomInstallLocation: s.CustomInstallLocation,
	}
	if o.CustomParameters == nil {
		o.CustomParameters = []string{}
	}
	if arch, ok := ParseArchitecture(s.Architecture); ok {
		o.Architecture = &arch
	}
	if scope, ok := packages.ParseScope(s.InstallationScope); ok {
		o.InstallScope = &scope
	}
	return o
}
