package controllers

import (
	"barcodedrop/internal/channel"
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/models"
	"barcodedrop/internal/services"
	"context"
	"sync"
	"time"
)

type mockSession struct {
	mu          sync.Mutex
	snap        services.Snapshot
	state       channel.State
	highlighted string
	submitErr   error
	deleteErr   error
	submitted   []string
	deleted     [][]string
	cleared     []*time.Duration
	visible     []bool
	resyncs     int
}

func (m *mockSession) Start(_ context.Context) error { return nil }

func (m *mockSession) Submit(_ context.Context, barcode string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if barcode == "" {
		return "", apperrors.New(apperrors.CodeValidation, "barcode is required")
	}
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.submitted = append(m.submitted, barcode)
	return "client-1", nil
}

func (m *mockSession) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ids)
	return m.deleteErr
}

func (m *mockSession) DeleteAll(_ context.Context, olderThan *time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if olderThan != nil && *olderThan < 0 {
		return apperrors.New(apperrors.CodeValidation, "older_than must not be negative")
	}
	m.cleared = append(m.cleared, olderThan)
	return m.deleteErr
}

func (m *mockSession) Resync(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resyncs++
	return nil
}

func (m *mockSession) SetVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = append(m.visible, visible)
}

func (m *mockSession) Snapshot() services.Snapshot { return m.snap }

func (m *mockSession) Highlighted() (string, bool) {
	return m.highlighted, m.highlighted != ""
}

func (m *mockSession) ChannelState() channel.State { return m.state }

func (m *mockSession) Subscribe(_ services.Listener) func() { return func() {} }

func (m *mockSession) Close() {}

type mockExporter struct {
	calls []services.ExportFormat
	err   error
}

func (m *mockExporter) Export(snap services.Snapshot, format services.ExportFormat) ([]byte, error) {
	m.calls = append(m.calls, format)
	if m.err != nil {
		return nil, m.err
	}
	return []byte(string(format) + ":" + snap.User), nil
}

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testSnapshot() services.Snapshot {
	return services.Snapshot{
		User:    "alice",
		Version: 3,
		Scans: []models.Scan{
			{ID: "b", ScannedAt: testTime.Add(time.Second), Barcode: "222", Username: "alice"},
			{ID: "a", ScannedAt: testTime, Barcode: "111", Username: "alice"},
		},
	}
}
