package clipboard

import (
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/structures"
	"context"
	"time"

	"github.com/atotto/clipboard"
)

const defaultWriteTimeout = 2 * time.Second

// Writer puts text on the system clipboard.
type Writer interface {
	Write(ctx context.Context, text string) error
}

// Notifier shows short user-facing messages such as "copied".
type Notifier interface {
	Notify(message string)
}

type SystemWriter struct {
	timeout time.Duration
	write   func(string) error
}

func NewSystemWriter(conf *structures.Config) Writer {
	timeout := conf.AutoCopy.ClipboardLimit
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &SystemWriter{timeout: timeout, write: clipboard.WriteAll}
}

// Write blocks until the clipboard accepts text, ctx is done or the write
// timeout elapses. The platform call cannot be interrupted, so a timed out
// write may still land later.
func (w *SystemWriter) Write(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return apperrors.New(apperrors.CodeClipboard, "clipboard is not supported on this system")
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.write(text)
	}()

	select {
	case err := <-done:
		if err != nil {
			return apperrors.Wrap(apperrors.CodeClipboard, err, "clipboard write failed")
		}
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(apperrors.CodeClipboard, ctx.Err(), "clipboard write timed out")
	}
}

// LogNotifier reports notifications through the application log.
type LogNotifier struct {
	logger providers.Logger
}

func NewLogNotifier(logger providers.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(message string) {
	n.logger.Infof(providers.TypeClipboard, "%s", message)
}

// MultiNotifier fans a message out to every non-nil notifier.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(message)
		}
	}
}
