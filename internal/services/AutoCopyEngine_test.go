package services

import (
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/models"
	"barcodedrop/internal/testutil"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s models.Scan) *models.Scan { return &s }

func TestShouldAutoCopy(t *testing.T) {
	x := scan("x", 100, "X")
	y := scan("y", 200, "Y")
	z := scan("z", 50, "Z")
	same := scan("w", 200, "W")

	cases := []struct {
		name    string
		cursor  *models.Scan
		current *models.Scan
		want    bool
	}{
		{"empty collection", nil, nil, false},
		{"empty after cursor", ptr(x), nil, false},
		{"first scan", nil, ptr(x), true},
		{"unchanged", ptr(x), ptr(x), false},
		{"newer scan", ptr(x), ptr(y), true},
		{"equal timestamp, new id", ptr(y), ptr(same), true},
		{"regression to older scan", ptr(y), ptr(z), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldAutoCopy(tc.cursor, tc.current))
		})
	}
}

func TestShouldAutoCopy_ComparesInstantsNotZones(t *testing.T) {
	cursor := scan("a", 0, "A")
	later := scan("b", 1, "B")
	later.ScannedAt = later.ScannedAt.In(time.FixedZone("minus5", -5*3600))
	assert.True(t, ShouldAutoCopy(&cursor, &later))
}

type engineFixture struct {
	engine      *AutoCopyEngine
	clipboard   *testutil.MockClipboard
	notifier    *testutil.MockNotifier
	prefs       PreferencesServiceInterface
	suppression *SuppressionSet
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	conf := testConfig()
	f := &engineFixture{
		clipboard:   &testutil.MockClipboard{},
		notifier:    &testutil.MockNotifier{},
		prefs:       NewPreferencesService(conf),
		suppression: NewSuppressionSet(),
	}
	f.engine = NewAutoCopyEngine(conf, f.clipboard, f.notifier, f.prefs, f.suppression, &testutil.MockLogger{}, noMetrics())
	t.Cleanup(f.engine.Close)
	return f
}

func snapOf(scans ...models.Scan) Snapshot {
	return Snapshot{User: "alice", Scans: scans}
}

func TestEngine_CopiesFirstScanOnce(t *testing.T) {
	f := newEngineFixture(t)
	x := scan("x", 100, "X")

	f.engine.OnCollectionChanged(snapOf(x))
	f.engine.waitIdle()
	f.engine.OnCollectionChanged(snapOf(x))
	f.engine.waitIdle()

	assert.Equal(t, []string{"X"}, f.clipboard.Written())
	assert.Equal(t, []string{"copied"}, f.notifier.All())
	cursor, ok := f.engine.Cursor()
	require.True(t, ok)
	assert.Equal(t, "x", cursor.ID)
}

func TestEngine_IgnoresRegression(t *testing.T) {
	f := newEngineFixture(t)
	y := scan("y", 200, "Y")
	z := scan("z", 50, "Z")

	f.engine.OnCollectionChanged(snapOf(y, z))
	f.engine.waitIdle()
	f.engine.OnCollectionChanged(snapOf(z))
	f.engine.waitIdle()

	assert.Equal(t, []string{"Y"}, f.clipboard.Written())
	cursor, _ := f.engine.Cursor()
	assert.Equal(t, "y", cursor.ID)
}

func TestEngine_DeleteThenRedeliverDoesNotDoubleCopy(t *testing.T) {
	f := newEngineFixture(t)
	a := scan("a", 100, "A")
	b := scan("b", 10, "B")

	f.engine.OnCollectionChanged(snapOf(a, b))
	f.engine.waitIdle()
	f.engine.OnCollectionChanged(snapOf(b))
	f.engine.waitIdle()
	f.engine.OnCollectionChanged(snapOf(a, b))
	f.engine.waitIdle()

	assert.Equal(t, []string{"A"}, f.clipboard.Written())
}

func TestEngine_SuppressedScanNeverCopied(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.OnCollectionChanged(snapOf(scan("old", 1, "OLD")))
	f.engine.waitIdle()

	local := scan("mine", 500, "MINE")
	f.suppression.Add(local.ID)
	f.engine.OnCollectionChanged(snapOf(local))
	f.engine.waitIdle()

	assert.Equal(t, []string{"OLD"}, f.clipboard.Written())
	// the cursor still moved, so an older scan surfacing later is a regression
	f.engine.OnCollectionChanged(snapOf(scan("mid", 300, "MID")))
	f.engine.waitIdle()
	assert.Equal(t, []string{"OLD"}, f.clipboard.Written())
}

func TestEngine_DisabledAdvancesCursorWithoutCopy(t *testing.T) {
	f := newEngineFixture(t)
	f.prefs.SetAutoCopy(false)

	f.engine.OnCollectionChanged(snapOf(scan("a", 10, "A")))
	f.engine.waitIdle()
	assert.Empty(t, f.clipboard.Written())
	cursor, ok := f.engine.Cursor()
	require.True(t, ok)
	assert.Equal(t, "a", cursor.ID)

	f.prefs.SetAutoCopy(true)
	f.engine.OnCollectionChanged(snapOf(scan("a", 10, "A")))
	f.engine.waitIdle()
	assert.Empty(t, f.clipboard.Written())
}

func TestEngine_FailedCopyIsRetried(t *testing.T) {
	f := newEngineFixture(t)
	f.clipboard.SetErr(apperrors.New(apperrors.CodeClipboard, "denied"))
	a := scan("a", 10, "A")

	f.engine.OnCollectionChanged(snapOf(a))
	f.engine.waitIdle()
	_, ok := f.engine.Cursor()
	assert.False(t, ok)
	assert.Empty(t, f.notifier.All())

	f.clipboard.SetErr(nil)
	f.engine.OnCollectionChanged(snapOf(a, scan("b", 1, "B")))
	f.engine.waitIdle()
	assert.Equal(t, []string{"A"}, f.clipboard.Written())
}

func TestEngine_HighlightExpires(t *testing.T) {
	f := newEngineFixture(t)
	var mu sync.Mutex
	var events []string
	f.engine.OnHighlight(func(id string, on bool) {
		mu.Lock()
		defer mu.Unlock()
		if on {
			events = append(events, "+"+id)
		} else {
			events = append(events, "-"+id)
		}
	})

	f.engine.OnCollectionChanged(snapOf(scan("a", 10, "A")))
	f.engine.waitIdle()
	id, ok := f.engine.Highlighted()
	assert.True(t, ok)
	assert.Equal(t, "a", id)

	require.Eventually(t, func() bool {
		_, on := f.engine.Highlighted()
		return !on
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"+a", "-a"}, events)
}

func TestEngine_NewHighlightReplacesPending(t *testing.T) {
	f := newEngineFixture(t)
	var mu sync.Mutex
	var expired []string
	f.engine.OnHighlight(func(id string, on bool) {
		if !on {
			mu.Lock()
			expired = append(expired, id)
			mu.Unlock()
		}
	})

	f.engine.OnCollectionChanged(snapOf(scan("a", 10, "A")))
	f.engine.waitIdle()
	f.engine.OnCollectionChanged(snapOf(scan("b", 20, "B")))
	f.engine.waitIdle()

	id, _ := f.engine.Highlighted()
	assert.Equal(t, "b", id)

	time.Sleep(120 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b"}, expired)
}

func TestEngine_HighlightDisabled(t *testing.T) {
	f := newEngineFixture(t)
	f.prefs.SetHighlight(false)

	f.engine.OnCollectionChanged(snapOf(scan("a", 10, "A")))
	f.engine.waitIdle()
	_, ok := f.engine.Highlighted()
	assert.False(t, ok)
	assert.Equal(t, []string{"A"}, f.clipboard.Written())
}

func TestEngine_CloseStopsTimersAndDecisions(t *testing.T) {
	f := newEngineFixture(t)
	fired := make(chan struct{}, 4)
	f.engine.OnHighlight(func(_ string, on bool) {
		if !on {
			fired <- struct{}{}
		}
	})

	f.engine.OnCollectionChanged(snapOf(scan("a", 10, "A")))
	f.engine.waitIdle()
	f.engine.Close()
	f.engine.OnCollectionChanged(snapOf(scan("b", 20, "B")))
	f.engine.waitIdle()

	select {
	case <-fired:
		t.Fatal("highlight expiry fired after Close")
	case <-time.After(120 * time.Millisecond):
	}
	assert.Equal(t, []string{"A"}, f.clipboard.Written())
}

func TestEngine_CloseCancelsClipboardWrite(t *testing.T) {
	f := newEngineFixture(t)
	started := make(chan struct{})
	f.clipboard.WriteFn = func(ctx context.Context, _ string) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}

	f.engine.OnCollectionChanged(snapOf(scan("a", 10, "A")))
	<-started

	done := make(chan struct{})
	go func() {
		f.engine.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write was not cancelled")
	}
	_, ok := f.engine.Cursor()
	assert.False(t, ok)
	assert.Empty(t, f.notifier.All())
}

func TestEngine_SlowClipboardDoesNotBlockStore(t *testing.T) {
	f := newEngineFixture(t)
	store, _ := newTestStore(&testutil.MockApi{})
	store.Subscribe(f.engine.OnCollectionChanged)

	started := make(chan struct{})
	release := make(chan struct{})
	f.clipboard.WriteFn = func(ctx context.Context, text string) error {
		if text != "A" {
			return nil
		}
		close(started)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	require.NoError(t, store.ApplyUpsert([]models.Scan{scan("a", 10, "A")}))
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("copy of a never started")
	}

	applied := make(chan struct{})
	go func() {
		defer close(applied)
		assert.NoError(t, store.ApplyUpsert([]models.Scan{scan("b", 20, "B")}))
		assert.NoError(t, store.ApplyUpsert([]models.Scan{scan("c", 30, "C")}))
	}()
	select {
	case <-applied:
	case <-time.After(time.Second):
		t.Fatal("store mutations waited for the clipboard")
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids(store.Current().Scans))

	close(release)
	f.engine.waitIdle()

	// b was superseded by c while a was still being written
	assert.Equal(t, []string{"A", "C"}, f.clipboard.Written())
	cursor, ok := f.engine.Cursor()
	require.True(t, ok)
	assert.Equal(t, "c", cursor.ID)
}
