//go:build !linux && !darwin && !windows

package notify

import (
	"fmt"
	"runtime"
)

func showOS(run CommandFunc, appName string, n Notification) error {
	return fmt.Errorf("desktop notifications are not supported on %s", runtime.GOOS)
}

func withdrawOS(run CommandFunc, appName, tag string) error {
	return nil
}
