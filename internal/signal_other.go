//go:build windows

package internal

import "os"

var (
	resumeSignal os.Signal
	resyncSignal os.Signal
)

func watchedSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
