package services

import (
	"barcodedrop/internal/clipboard"
	"barcodedrop/internal/models"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/structures"
	"context"
	"sync"
	"time"
)

const (
	defaultHighlightTTL = 5 * time.Second

	CopyResultCopied     = "copied"
	CopyResultSuppressed = "suppressed"
	CopyResultDisabled   = "disabled"
	CopyResultFailed     = "failed"
)

// ShouldAutoCopy reports whether current is a new most-recent scan relative
// to the last auto-copied one. A regression to an older scan never qualifies.
func ShouldAutoCopy(cursor, current *models.Scan) bool {
	if current == nil {
		return false
	}
	if cursor == nil {
		return true
	}
	if current.ID == cursor.ID {
		return false
	}
	return !current.ScannedAt.Before(cursor.ScannedAt)
}

type AutoCopyEngineInterface interface {
	OnCollectionChanged(snap Snapshot)
	Cursor() (models.Scan, bool)
	Highlighted() (string, bool)
	Close()
}

type AutoCopyEngine struct {
	clipboard   clipboard.Writer
	notifier    clipboard.Notifier
	prefs       PreferencesServiceInterface
	suppression *SuppressionSet
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	ttl         time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	kick chan struct{}
	wg   sync.WaitGroup

	mu             sync.Mutex
	idle           *sync.Cond
	cursor         *models.Scan
	queued         *models.Scan
	inflight       *models.Scan
	highlightID    string
	highlightTimer *time.Timer
	highlightGen   uint64
	closed         bool
	onHighlight    func(id string, on bool)
}

func NewAutoCopyEngine(
	conf *structures.Config,
	writer clipboard.Writer,
	notifier clipboard.Notifier,
	prefs PreferencesServiceInterface,
	suppression *SuppressionSet,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) *AutoCopyEngine {
	ttl := conf.AutoCopy.HighlightTTL
	if ttl <= 0 {
		ttl = defaultHighlightTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &AutoCopyEngine{
		clipboard:   writer,
		notifier:    notifier,
		prefs:       prefs,
		suppression: suppression,
		logger:      logger,
		metrics:     metrics,
		ttl:         ttl,
		ctx:         ctx,
		cancel:      cancel,
		kick:        make(chan struct{}, 1),
	}
	e.idle = sync.NewCond(&e.mu)
	e.wg.Add(1)
	go e.run()
	return e
}

// OnHighlight registers a callback fired when a row highlight starts or expires.
func (e *AutoCopyEngine) OnHighlight(fn func(id string, on bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onHighlight = fn
}

// OnCollectionChanged evaluates the newest scan of snap against the cursor.
// The cursor moves on a confirmed copy, or without a copy when the scan is
// suppressed or auto-copy is off. A failed copy leaves it in place.
// Clipboard writes run on the engine's own goroutine, so a slow clipboard
// never holds up the store.
func (e *AutoCopyEngine) OnCollectionChanged(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	newest, ok := snap.MostRecent()
	var current *models.Scan
	if ok {
		current = &newest
	}
	if !ShouldAutoCopy(e.targetLocked(), current) {
		return
	}

	if e.suppression.Contains(newest.ID) {
		e.cursor, e.queued = current, nil
		e.metrics.IncAutoCopy(CopyResultSuppressed)
		e.logger.Debugf(providers.TypeClipboard, "Scan %s was submitted locally, not copying", newest.ID)
		return
	}
	if !e.prefs.AutoCopyEnabled() {
		e.cursor, e.queued = current, nil
		e.metrics.IncAutoCopy(CopyResultDisabled)
		return
	}

	// a newer scan replaces one still waiting for the clipboard
	e.queued = current
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// targetLocked is the scan the next decision compares against: the one being
// copied or waiting to be, else the cursor.
func (e *AutoCopyEngine) targetLocked() *models.Scan {
	switch {
	case e.queued != nil:
		return e.queued
	case e.inflight != nil:
		return e.inflight
	default:
		return e.cursor
	}
}

func (e *AutoCopyEngine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.kick:
		}
		for e.copyNext() {
		}
	}
}

// copyNext writes the queued scan and reports whether it did any work.
func (e *AutoCopyEngine) copyNext() bool {
	e.mu.Lock()
	if e.closed || e.queued == nil {
		e.mu.Unlock()
		return false
	}
	scan := *e.queued
	e.inflight, e.queued = e.queued, nil
	e.mu.Unlock()

	err := e.clipboard.Write(e.ctx, scan.Barcode)

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.idle.Broadcast()
	e.inflight = nil
	if e.closed {
		return false
	}
	if err != nil {
		e.metrics.IncAutoCopy(CopyResultFailed)
		e.logger.Warnf(providers.TypeClipboard, "Auto-copy of scan %s failed: %v", scan.ID, err)
		return true
	}
	// the cursor moved past this scan while it was being written
	if !ShouldAutoCopy(e.cursor, &scan) {
		return true
	}

	e.cursor = &scan
	e.metrics.IncAutoCopy(CopyResultCopied)
	if e.prefs.HighlightEnabled() {
		e.highlightLocked(scan.ID)
	}
	if e.notifier != nil {
		e.notifier.Notify("copied")
	}
	return true
}

// waitIdle blocks until no copy is queued or in flight.
func (e *AutoCopyEngine) waitIdle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for !e.closed && (e.queued != nil || e.inflight != nil) {
		e.idle.Wait()
	}
}

func (e *AutoCopyEngine) Cursor() (models.Scan, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cursor == nil {
		return models.Scan{}, false
	}
	return *e.cursor, true
}

func (e *AutoCopyEngine) Highlighted() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.highlightID, e.highlightID != ""
}

// Close stops the highlight timer, cancels any clipboard write in flight and
// waits for the copy goroutine. No callback fires after Close returns.
func (e *AutoCopyEngine) Close() {
	e.cancel()

	e.mu.Lock()
	e.closed = true
	e.queued = nil
	if e.highlightTimer != nil {
		e.highlightTimer.Stop()
		e.highlightTimer = nil
	}
	e.highlightID = ""
	e.idle.Broadcast()
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *AutoCopyEngine) highlightLocked(id string) {
	if e.highlightTimer != nil {
		e.highlightTimer.Stop()
	}
	e.highlightGen++
	gen := e.highlightGen
	e.highlightID = id
	if e.onHighlight != nil {
		e.onHighlight(id, true)
	}

	e.highlightTimer = time.AfterFunc(e.ttl, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		// a newer highlight or Close won the race with this timer
		if e.closed || gen != e.highlightGen {
			return
		}
		e.highlightID = ""
		e.highlightTimer = nil
		if e.onHighlight != nil {
			e.onHighlight(id, false)
		}
	})
}
