package managers

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// managerProcesses are the executable names that show a manager is busy.
// Scoop runs inside PowerShell and cannot be told apart, so it has none.
var managerProcesses = map[string][]string{
	"winget":     {"winget.exe", "winget", "AppInstallerCLI.exe"},
	"chocolatey": {"choco.exe", "choco", "chocolatey.exe"},
}

// ProcessNamesFunc lists the names of running processes.
type ProcessNamesFunc func(ctx context.Context) ([]string, error)

// ProcessBusy reports a manager as busy while one of its executables runs.
type ProcessBusy struct {
	list ProcessNamesFunc
}

// NewProcessBusy uses gopsutil when list is nil.
func NewProcessBusy(list ProcessNamesFunc) *ProcessBusy {
	if list == nil {
		list = runningProcessNames
	}
	return &ProcessBusy{list: list}
}

// ManagerBusy reports whether the manager's own binary is running. Errors
// listing processes are logged and treated as not busy.
func (b *ProcessBusy) ManagerBusy(ctx context.Context, manager string) bool {
	wanted := managerProcesses[strings.ToLower(manager)]
	if len(wanted) == 0 {
		return false
	}

	names, err := b.list(ctx)
	if err != nil {
		log.Warn("process listing failed", "manager", manager, "error", err)
		return false
	}
	for _, name := range names {
		for _, w := range wanted {
			if strings.EqualFold(name, w) {
				log.Debug("manager busy", "manager", manager, "process", name)
				return true
			}
		}
	}
	return false
}

func runningProcessNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(procs))
	skipped := 0
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			skipped++
			continue
		}
		names = append(names, name)
	}
	if skipped > 0 {
		log.Debug("process listing skipped processes", "skipped", skipped, "total", len(procs))
	}
	return names, nil
}
