package testutil

import (
	"barcodedrop/internal/models"
	"barcodedrop/internal/providers"
	"context"
	"strings"
	"sync"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether any entry at level has a format containing substr.
func (m *MockLogger) Contains(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.Logs {
		if l.Level == level && strings.Contains(l.Format, substr) {
			return true
		}
	}
	return false
}

type DeleteUserCall struct {
	User             string
	OlderThanSeconds *int
}

type ScanCall struct {
	User    string
	Barcode string
	ID      string
}

// MockApi implements api.ClientInterface with injectable behavior.
type MockApi struct {
	mu sync.Mutex

	Scans  []models.Scan
	GetErr error
	GetFn  func(ctx context.Context, user string) ([]models.Scan, error)

	DeleteErr       error
	DeleteUserErr   error
	ScanErr         error
	ScanResponse    string
	GetCalls        []string
	DeleteCalls     [][]string
	DeleteUserCalls []DeleteUserCall
	ScanCalls       []ScanCall
}

func (m *MockApi) GetUserScans(ctx context.Context, user string) ([]models.Scan, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, user)
	fn := m.GetFn
	scans, err := models.CloneScans(m.Scans), m.GetErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	return scans, nil
}

func (m *MockApi) DeleteScans(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, append([]string(nil), ids...))
	return m.DeleteErr
}

func (m *MockApi) DeleteUserScans(_ context.Context, user string, olderThanSeconds *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteUserCalls = append(m.DeleteUserCalls, DeleteUserCall{User: user, OlderThanSeconds: olderThanSeconds})
	return m.DeleteUserErr
}

func (m *MockApi) ScanBarcode(_ context.Context, user, barcode, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanCalls = append(m.ScanCalls, ScanCall{User: user, Barcode: barcode, ID: id})
	if m.ScanErr != nil {
		return "", m.ScanErr
	}
	return m.ScanResponse, nil
}

func (m *MockApi) SetScans(scans []models.Scan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scans = models.CloneScans(scans)
}

func (m *MockApi) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GetCalls)
}

func (m *MockApi) Submitted() []ScanCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScanCall(nil), m.ScanCalls...)
}

// MockClipboard implements clipboard.Writer and records successful writes.
type MockClipboard struct {
	mu      sync.Mutex
	Writes  []string
	Err     error
	WriteFn func(ctx context.Context, text string) error
}

func (m *MockClipboard) Write(ctx context.Context, text string) error {
	m.mu.Lock()
	fn, err := m.WriteFn, m.Err
	m.mu.Unlock()

	if fn != nil {
		err = fn(ctx, text)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes = append(m.Writes, text)
	return nil
}

func (m *MockClipboard) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *MockClipboard) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Writes...)
}

// MockNotifier implements clipboard.Notifier.
type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (m *MockNotifier) Notify(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, message)
}

func (m *MockNotifier) All() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Messages...)
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
	Sets int
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
	m.Sets++
}

// MockCompressor implements persistence.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// identity by default
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}
