package services

import (
	"barcodedrop/internal/channel"
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/models"
	"barcodedrop/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	session     *Session
	api         *testutil.MockApi
	store       *ScanStore
	engine      *AutoCopyEngine
	channel     *fakeChannel
	clipboard   *testutil.MockClipboard
	suppression *SuppressionSet
	logger      *testutil.MockLogger
}

func newSessionFixture(t *testing.T, restOnly bool) *sessionFixture {
	t.Helper()
	conf := testConfig()
	conf.Channel.Disabled = restOnly

	f := &sessionFixture{
		api:         &testutil.MockApi{},
		channel:     &fakeChannel{disabled: restOnly},
		clipboard:   &testutil.MockClipboard{},
		suppression: NewSuppressionSet(),
		logger:      &testutil.MockLogger{},
	}
	metrics := noMetrics()
	f.store = NewScanStore(conf, f.api, f.logger, metrics).(*ScanStore)
	f.engine = NewAutoCopyEngine(conf, f.clipboard, &testutil.MockNotifier{}, NewPreferencesService(conf), f.suppression, f.logger, metrics)
	f.session = NewSession(conf, f.api, f.store, f.engine, f.suppression, f.channel, f.logger, metrics).(*Session)
	t.Cleanup(f.session.Close)
	return f
}

func TestSession_EndToEndUpsertCopiesOnce(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.session.Start(context.Background()))
	assert.Empty(t, f.session.Snapshot().Scans)

	require.NoError(t, f.channel.deliver(`{"type":"UpsertScans","newScans":[{"id":"1","barcode":"ABC","scanned_at":"2024-03-01T12:00:00Z","username":"alice"}]}`))

	snap := f.session.Snapshot()
	assert.Equal(t, []string{"1"}, ids(snap.Scans))
	recent, ok := snap.MostRecent()
	require.True(t, ok)
	assert.Equal(t, "ABC", recent.Barcode)
	f.engine.waitIdle()
	assert.Equal(t, []string{"ABC"}, f.clipboard.Written())

	// redelivery of the same upsert changes nothing
	require.NoError(t, f.channel.deliver(`{"type":"UpsertScans","newScans":[{"id":"1","barcode":"ABC","scanned_at":"2024-03-01T12:00:00Z","username":"alice"}]}`))
	f.engine.waitIdle()
	assert.Equal(t, []string{"ABC"}, f.clipboard.Written())
}

func TestSession_EndToEndDeleteDoesNotCopyOlder(t *testing.T) {
	f := newSessionFixture(t, false)
	f.api.SetScans([]models.Scan{scan("1", 100, "ONE"), scan("2", 50, "TWO")})
	require.NoError(t, f.session.Start(context.Background()))
	f.engine.waitIdle()
	assert.Equal(t, []string{"ONE"}, f.clipboard.Written())

	require.NoError(t, f.channel.deliver(`{"type":"DeleteScans","ids":["1"]}`))

	assert.Equal(t, []string{"2"}, ids(f.session.Snapshot().Scans))
	f.engine.waitIdle()
	assert.Equal(t, []string{"ONE"}, f.clipboard.Written())
}

func TestSession_OpenReloads(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.session.Start(context.Background()))
	assert.Equal(t, 1, f.api.GetCallCount())

	f.api.SetScans([]models.Scan{scan("missed", 5, "M")})
	f.channel.open()

	assert.Equal(t, 2, f.api.GetCallCount())
	assert.Equal(t, []string{"missed"}, ids(f.session.Snapshot().Scans))
}

func TestSession_ReplaceAllMessage(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.session.Start(context.Background()))
	require.NoError(t, f.session.Delete(context.Background(), []string{"a"}))

	require.NoError(t, f.channel.deliver(`{"type":"ReplaceAllScans","scans":[{"id":"a","barcode":"A","scanned_at":"2024-03-01T12:00:20Z"}]}`))
	assert.Equal(t, []string{"a"}, ids(f.session.Snapshot().Scans))
}

func TestSession_ForeignUpsertIsRejected(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.session.Start(context.Background()))

	err := f.channel.deliver(`{"type":"UpsertScans","newScans":[{"id":"1","barcode":"X","scanned_at":"2024-03-01T12:00:00Z","username":"bob"}]}`)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProtocol))
	assert.Empty(t, f.session.Snapshot().Scans)
	f.engine.waitIdle()
	assert.Empty(t, f.clipboard.Written())
}

func TestSession_StartSurvivesFailedLoad(t *testing.T) {
	f := newSessionFixture(t, false)
	f.api.GetErr = apperrors.New(apperrors.CodeTransport, "down")

	err := f.session.Start(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransport))
	assert.Equal(t, channel.Connecting, f.session.ChannelState())
}

func TestSession_SubmitSuppressesOwnScan(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.session.Start(context.Background()))

	id, err := f.session.Submit(context.Background(), "TYPED")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.True(t, f.suppression.Contains(id))

	calls := f.api.Submitted()
	require.Len(t, calls, 1)
	assert.Equal(t, testutil.ScanCall{User: "alice", Barcode: "TYPED", ID: id}, calls[0])

	require.NoError(t, f.channel.deliver(`{"type":"UpsertScans","newScans":[{"id":"`+id+`","barcode":"TYPED","scanned_at":"2024-03-01T12:00:00Z"}]}`))
	assert.Equal(t, []string{id}, ids(f.session.Snapshot().Scans))
	f.engine.waitIdle()
	assert.Empty(t, f.clipboard.Written())
}

func TestSession_SubmitValidation(t *testing.T) {
	f := newSessionFixture(t, false)
	_, err := f.session.Submit(context.Background(), "  ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Empty(t, f.api.Submitted())
}

func TestSession_SubmitFailure(t *testing.T) {
	f := newSessionFixture(t, false)
	f.api.ScanErr = apperrors.New(apperrors.CodeTransport, "down")

	_, err := f.session.Submit(context.Background(), "X")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransport))
	assert.Equal(t, 1, f.suppression.Len())
}

func TestSession_RestOnlySubmitReloads(t *testing.T) {
	f := newSessionFixture(t, true)
	require.NoError(t, f.session.Start(context.Background()))
	assert.Equal(t, channel.Disabled, f.session.ChannelState())

	f.api.SetScans([]models.Scan{scan("server", 1, "S")})
	_, err := f.session.Submit(context.Background(), "S")
	require.NoError(t, err)

	assert.Equal(t, 2, f.api.GetCallCount())
	assert.Equal(t, []string{"server"}, ids(f.session.Snapshot().Scans))
}

func TestSession_DeleteIsOptimistic(t *testing.T) {
	f := newSessionFixture(t, false)
	f.api.SetScans([]models.Scan{scan("a", 10, "A"), scan("b", 5, "B")})
	require.NoError(t, f.session.Start(context.Background()))

	f.api.DeleteErr = apperrors.New(apperrors.CodeTransport, "down")
	err := f.session.Delete(context.Background(), []string{"a"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransport))
	assert.Equal(t, []string{"b"}, ids(f.session.Snapshot().Scans))
	assert.Equal(t, [][]string{{"a"}}, f.api.DeleteCalls)

	require.NoError(t, f.session.Delete(context.Background(), nil))
	assert.Len(t, f.api.DeleteCalls, 1)
}

func TestSession_DeleteAll(t *testing.T) {
	f := newSessionFixture(t, false)
	f.session.now = func() time.Time { return t0.Add(100 * time.Second) }
	f.api.SetScans([]models.Scan{scan("new", 90, "N"), scan("old", 10, "O")})
	require.NoError(t, f.session.Start(context.Background()))

	older := 30 * time.Second
	require.NoError(t, f.session.DeleteAll(context.Background(), &older))
	assert.Equal(t, []string{"new"}, ids(f.session.Snapshot().Scans))
	require.Len(t, f.api.DeleteUserCalls, 1)
	require.NotNil(t, f.api.DeleteUserCalls[0].OlderThanSeconds)
	assert.Equal(t, 30, *f.api.DeleteUserCalls[0].OlderThanSeconds)

	require.NoError(t, f.session.DeleteAll(context.Background(), nil))
	assert.Empty(t, f.session.Snapshot().Scans)
	assert.Nil(t, f.api.DeleteUserCalls[1].OlderThanSeconds)

	negative := -time.Second
	assert.True(t, apperrors.IsCode(f.session.DeleteAll(context.Background(), &negative), apperrors.CodeValidation))
}

func TestSession_SetVisible(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.session.Start(context.Background()))

	f.session.SetVisible(false)
	f.session.SetVisible(true)
	assert.Equal(t, 1, f.channel.visible)
}

func TestSession_CloseTearsDown(t *testing.T) {
	f := newSessionFixture(t, false)
	f.api.SetScans([]models.Scan{scan("a", 10, "A")})
	require.NoError(t, f.session.Start(context.Background()))
	f.engine.waitIdle()

	f.session.Close()
	f.session.Close()

	assert.Equal(t, 1, f.channel.closed)
	assert.Empty(t, f.store.Current().Scans)

	// the engine is no longer subscribed
	require.NoError(t, f.store.ApplyUpsert([]models.Scan{scan("b", 20, "B")}))
	f.engine.waitIdle()
	assert.Equal(t, []string{"A"}, f.clipboard.Written())

	f.session.SetVisible(true)
	assert.Equal(t, 0, f.channel.visible)
	assert.Error(t, f.session.Start(context.Background()))
}

func TestSession_RequestsFailAfterClose(t *testing.T) {
	f := newSessionFixture(t, false)
	f.api.SetScans([]models.Scan{scan("a", 10, "A")})
	require.NoError(t, f.session.Start(context.Background()))
	f.session.Close()

	assert.True(t, apperrors.IsCode(f.session.Resync(context.Background()), apperrors.CodeInternal))
	_, err := f.session.Submit(context.Background(), "X")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternal))
	assert.True(t, apperrors.IsCode(f.session.Delete(context.Background(), []string{"a"}), apperrors.CodeInternal))
	assert.True(t, apperrors.IsCode(f.session.DeleteAll(context.Background(), nil), apperrors.CodeInternal))

	assert.Empty(t, f.session.Snapshot().Scans)
	assert.Equal(t, 1, f.api.GetCallCount())
	assert.Empty(t, f.api.Submitted())
	assert.Empty(t, f.api.DeleteCalls)
	assert.Empty(t, f.api.DeleteUserCalls)
}

func TestSession_CloseCancelsResyncInFlight(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.session.Start(context.Background()))

	started := make(chan struct{})
	f.api.GetFn = func(ctx context.Context, _ string) ([]models.Scan, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	result := make(chan error, 1)
	go func() { result <- f.session.Resync(context.Background()) }()
	<-started
	f.session.Close()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("resync was not cancelled by Close")
	}
	assert.Empty(t, f.session.Snapshot().Scans)
}

func TestSession_LateLoadAfterCloseIsDropped(t *testing.T) {
	f := newSessionFixture(t, false)
	require.NoError(t, f.session.Start(context.Background()))

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.GetFn = func(_ context.Context, _ string) ([]models.Scan, error) {
		close(started)
		<-release
		return []models.Scan{scan("late", 10, "LATE")}, nil
	}

	result := make(chan error, 1)
	go func() { result <- f.session.Resync(context.Background()) }()
	<-started
	f.session.Close()
	close(release)

	select {
	case <-result:
	case <-time.After(time.Second):
		t.Fatal("resync did not return")
	}
	assert.Empty(t, f.store.Current().Scans)
	f.engine.waitIdle()
	assert.Empty(t, f.clipboard.Written())
}
