package services

import (
	"barcodedrop/internal/channel"
	"barcodedrop/internal/models"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/structures"
	"barcodedrop/internal/testutil"
	"sync"
	"time"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func scan(id string, sec int, barcode string) models.Scan {
	return models.Scan{ID: id, ScannedAt: t0.Add(time.Duration(sec) * time.Second), Barcode: barcode, Username: "alice"}
}

func ids(scans []models.Scan) []string {
	out := make([]string, len(scans))
	for i, s := range scans {
		out[i] = s.ID
	}
	return out
}

func testConfig() *structures.Config {
	return &structures.Config{
		Username: "alice",
		AutoCopy: structures.AutoCopyConfig{
			Enabled:      true,
			HighlightTTL: 50 * time.Millisecond,
		},
	}
}

func noMetrics() providers.MetricsProviderInterface {
	return providers.NewMetricsProvider(&structures.Config{})
}

func newTestStore(api *testutil.MockApi) (*ScanStore, *testutil.MockLogger) {
	logger := &testutil.MockLogger{}
	return NewScanStore(testConfig(), api, logger, noMetrics()).(*ScanStore), logger
}

// snapshotRecorder collects every notification a store emits.
type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *snapshotRecorder) listen(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *snapshotRecorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

// fakeChannel lets tests drive the session's channel handler directly.
type fakeChannel struct {
	mu       sync.Mutex
	handler  channel.Handler
	state    channel.State
	visible  int
	closed   int
	disabled bool
}

func (f *fakeChannel) Start(handler channel.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	if f.disabled {
		f.state = channel.Disabled
		return
	}
	f.state = channel.Connecting
}

func (f *fakeChannel) OnVisible() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible++
}

func (f *fakeChannel) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	f.state = channel.Closed
}

func (f *fakeChannel) State() channel.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeChannel) open() {
	f.mu.Lock()
	f.state = channel.Open
	h := f.handler
	f.mu.Unlock()
	h.OnOpen()
}

func (f *fakeChannel) deliver(payload string) error {
	msg, err := models.DecodeChannelMessage([]byte(payload))
	if err != nil {
		return err
	}
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	return h.OnMessage(msg)
}
