package services

import (
	"barcodedrop/internal/api"
	"barcodedrop/internal/channel"
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/models"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/structures"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/atomic"
)

type SessionInterface interface {
	Start(ctx context.Context) error
	Submit(ctx context.Context, barcode string) (string, error)
	Delete(ctx context.Context, ids []string) error
	DeleteAll(ctx context.Context, olderThan *time.Duration) error
	Resync(ctx context.Context) error
	SetVisible(visible bool)
	Snapshot() Snapshot
	Highlighted() (string, bool)
	ChannelState() channel.State
	Subscribe(listener Listener) func()
	Close()
}

// Session is one mounted view: a single user's store, channel and auto-copy
// engine with a shared lifetime.
type Session struct {
	user        string
	restOnly    bool
	api         api.ClientInterface
	store       ScanStoreInterface
	engine      AutoCopyEngineInterface
	suppression *SuppressionSet
	channel     channel.ChannelInterface
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface

	ctx         context.Context
	cancel      context.CancelFunc
	started     atomic.Bool
	closed      atomic.Bool
	unsubscribe func()
	now         func() time.Time
}

func NewSession(
	conf *structures.Config,
	client api.ClientInterface,
	store ScanStoreInterface,
	engine AutoCopyEngineInterface,
	suppression *SuppressionSet,
	ch channel.ChannelInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) SessionInterface {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		user:        conf.Username,
		restOnly:    conf.Channel.Disabled,
		api:         client,
		store:       store,
		engine:      engine,
		suppression: suppression,
		channel:     ch,
		logger:      logger,
		metrics:     metrics,
		ctx:         ctx,
		cancel:      cancel,
		now:         time.Now,
	}
}

// Start wires the engine to the store, loads the initial snapshot and opens
// the channel. A failed initial load is returned but does not stop the
// channel, whose first open triggers another load.
func (s *Session) Start(ctx context.Context) error {
	if s.closed.Load() {
		return apperrors.New(apperrors.CodeInternal, "session closed")
	}
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.unsubscribe = s.store.Subscribe(s.engine.OnCollectionChanged)
	err := s.store.LoadInitial(ctx)
	if err != nil {
		s.metrics.IncTransportErrors("initial_load")
	}
	s.channel.Start(s)
	return err
}

// Submit sends a barcode under a locally generated id. The id is recorded
// first so the upsert echoing it back is never auto-copied.
func (s *Session) Submit(ctx context.Context, barcode string) (string, error) {
	ctx, done, err := s.bind(ctx)
	if err != nil {
		return "", err
	}
	defer done()
	if strings.TrimSpace(barcode) == "" {
		return "", apperrors.New(apperrors.CodeValidation, "barcode is empty")
	}
	id := NewClientScanID()
	s.suppression.Add(id)

	if _, err := s.api.ScanBarcode(ctx, s.user, barcode, id); err != nil {
		s.logger.Errorf(providers.TypeApi, "Submitting scan %s failed: %v", id, err)
		return "", err
	}
	if s.restOnly {
		// no live channel will deliver the upsert
		if err := s.store.LoadInitial(ctx); err != nil {
			return id, err
		}
	}
	return id, nil
}

// Delete removes ids locally right away, then asks the server. The local
// removal stays in place if the request fails.
func (s *Session) Delete(ctx context.Context, ids []string) error {
	ctx, done, err := s.bind(ctx)
	if err != nil {
		return err
	}
	defer done()
	if len(ids) == 0 {
		return nil
	}
	s.store.ApplyDelete(ids)
	if err := s.api.DeleteScans(ctx, ids); err != nil {
		s.logger.Errorf(providers.TypeApi, "Deleting %d scans failed: %v", len(ids), err)
		return err
	}
	return nil
}

// DeleteAll clears the user's scans, or only those older than olderThan.
func (s *Session) DeleteAll(ctx context.Context, olderThan *time.Duration) error {
	ctx, done, err := s.bind(ctx)
	if err != nil {
		return err
	}
	defer done()
	var seconds *int
	var cutoff time.Time
	if olderThan != nil {
		if *olderThan < 0 {
			return apperrors.New(apperrors.CodeValidation, "older than must not be negative")
		}
		n := int(olderThan.Seconds())
		seconds = &n
		cutoff = s.now().Add(-time.Duration(n) * time.Second)
	}

	var ids []string
	for _, scan := range s.store.Current().Scans {
		if olderThan == nil || scan.ScannedAt.Before(cutoff) {
			ids = append(ids, scan.ID)
		}
	}
	if len(ids) > 0 {
		s.store.ApplyDelete(ids)
	}

	if err := s.api.DeleteUserScans(ctx, s.user, seconds); err != nil {
		s.logger.Errorf(providers.TypeApi, "Clearing scans for %s failed: %v", s.user, err)
		return err
	}
	return nil
}

func (s *Session) Resync(ctx context.Context) error {
	ctx, done, err := s.bind(ctx)
	if err != nil {
		return err
	}
	defer done()
	return s.store.LoadInitial(ctx)
}

// bind derives a context from ctx that is also cancelled when the session
// closes. It fails once the session is closed.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.closed.Load() {
		return nil, nil, apperrors.New(apperrors.CodeInternal, "session closed")
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}, nil
}

func (s *Session) SetVisible(visible bool) {
	if visible && !s.closed.Load() {
		s.channel.OnVisible()
	}
}

func (s *Session) Snapshot() Snapshot {
	return s.store.Current()
}

func (s *Session) Highlighted() (string, bool) {
	return s.engine.Highlighted()
}

func (s *Session) ChannelState() channel.State {
	return s.channel.State()
}

func (s *Session) Subscribe(listener Listener) func() {
	return s.store.Subscribe(listener)
}

// Close tears the view down. After it returns no timer, channel callback or
// request changes the store, and the request methods fail. Safe to call more
// than once.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.cancel()
	s.channel.Close()
	s.engine.Close()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.store.Close()
	s.logger.Infof(providers.TypeApp, "Session for %s closed", s.user)
}

func (s *Session) OnOpen() {
	if err := s.store.LoadInitial(s.ctx); err != nil {
		s.metrics.IncTransportErrors("initial_load")
	}
}

func (s *Session) OnMessage(msg models.ChannelMessage) error {
	switch msg.Kind {
	case models.KindUpsert:
		return s.store.ApplyUpsert(msg.Scans)
	case models.KindDelete:
		s.store.ApplyDelete(msg.IDs)
		return nil
	case models.KindReplaceAll:
		return s.store.ApplyReplaceAll(msg.Scans)
	default:
		return apperrors.New(apperrors.CodeProtocol, fmt.Sprintf("unhandled message kind %q", msg.Kind))
	}
}
