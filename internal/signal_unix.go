//go:build !windows

package internal

import (
	"os"
	"syscall"
)

var (
	resumeSignal os.Signal = syscall.SIGCONT
	resyncSignal os.Signal = syscall.SIGUSR1
)

func watchedSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM, resumeSignal, resyncSignal}
}
