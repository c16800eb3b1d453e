package services

import (
	"barcodedrop/internal/api"
	"barcodedrop/internal/models"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/structures"
	"context"
	"sync"
)

// Snapshot is an immutable view of the store after one mutation.
type Snapshot struct {
	User    string
	Scans   []models.Scan
	Version uint64
}

func (s Snapshot) MostRecent() (models.Scan, bool) {
	if len(s.Scans) == 0 {
		return models.Scan{}, false
	}
	return s.Scans[0], true
}

type Listener func(Snapshot)

type ScanStoreInterface interface {
	User() string
	LoadInitial(ctx context.Context) error
	ApplyUpsert(scans []models.Scan) error
	ApplyDelete(ids []string)
	ApplyReplaceAll(scans []models.Scan) error
	Current() Snapshot
	MostRecent() (models.Scan, bool)
	Subscribe(listener Listener) func()
	Reset()
	Close()
}

type storeState struct {
	scans   []models.Scan
	pending models.IdSet
}

type updater func(storeState) storeState

type ScanStore struct {
	user    string
	api     api.ClientInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	// writeMu serialises mutate+notify so listeners see states in order.
	writeMu sync.Mutex
	closed  bool
	stateMu sync.RWMutex
	state   storeState
	version uint64

	listenersMu sync.Mutex
	listeners   []subscription
	nextID      int
}

type subscription struct {
	id int
	fn Listener
}

func NewScanStore(conf *structures.Config, client api.ClientInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) ScanStoreInterface {
	return &ScanStore{
		user:    conf.Username,
		api:     client,
		logger:  logger,
		metrics: metrics,
		state:   storeState{scans: []models.Scan{}, pending: models.NewIdSet()},
	}
}

func (s *ScanStore) User() string {
	return s.user
}

// LoadInitial replaces the collection with the server snapshot. On failure
// the previous collection is kept.
func (s *ScanStore) LoadInitial(ctx context.Context) error {
	scans, err := s.api.GetUserScans(ctx, s.user)
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "Initial load for %s failed: %v", s.user, err)
		return err
	}
	owned, err := models.OwnedBy(scans, s.user)
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "Initial load for %s rejected: %v", s.user, err)
		return err
	}

	s.apply(func(st storeState) storeState {
		st.scans = models.NormalizeScans(owned, st.pending)
		return st
	})
	s.logger.Debugf(providers.TypeStore, "Loaded %d scans for %s", len(owned), s.user)
	return nil
}

func (s *ScanStore) ApplyUpsert(scans []models.Scan) error {
	owned, err := models.OwnedBy(scans, s.user)
	if err != nil {
		return err
	}
	s.apply(func(st storeState) storeState {
		st.scans = models.MergeScans(st.scans, owned, st.pending)
		return st
	})
	return nil
}

// ApplyDelete records ids as pending deletes and removes every pending id,
// so a late upsert cannot bring a deleted scan back.
func (s *ScanStore) ApplyDelete(ids []string) {
	s.apply(func(st storeState) storeState {
		st.pending = st.pending.Union(models.NewIdSet(ids...))
		st.scans = models.RemoveScans(st.scans, st.pending)
		return st
	})
}

// ApplyReplaceAll is authoritative: it clears the pending delete set.
func (s *ScanStore) ApplyReplaceAll(scans []models.Scan) error {
	owned, err := models.OwnedBy(scans, s.user)
	if err != nil {
		return err
	}
	s.apply(func(st storeState) storeState {
		st.pending = models.NewIdSet()
		st.scans = models.NormalizeScans(owned, st.pending)
		return st
	})
	return nil
}

func (s *ScanStore) Current() Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshotLocked()
}

func (s *ScanStore) MostRecent() (models.Scan, bool) {
	return s.Current().MostRecent()
}

// Subscribe registers listener for post-mutation snapshots. Listeners run
// synchronously in mutation order and must not mutate the store.
func (s *ScanStore) Subscribe(listener Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: listener})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Reset drops the collection and pending deletes without notifying.
func (s *ScanStore) Reset() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.resetLocked()
}

// Close resets the store and detaches it: later mutations, including a load
// that was already in flight, are dropped.
func (s *ScanStore) Close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.closed = true
	s.resetLocked()
}

func (s *ScanStore) resetLocked() {
	s.stateMu.Lock()
	s.state = storeState{scans: []models.Scan{}, pending: models.NewIdSet()}
	s.version++
	s.stateMu.Unlock()

	s.metrics.SetScansTotal(0)
}

func (s *ScanStore) apply(fn updater) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return
	}

	s.stateMu.Lock()
	prev := s.state.scans
	s.state = fn(s.state)
	changed := !models.SameScans(prev, s.state.scans)
	if changed {
		s.version++
	}
	snap := s.snapshotLocked()
	s.stateMu.Unlock()

	if !changed {
		return
	}

	s.metrics.SetScansTotal(len(snap.Scans))
	for _, l := range s.subscribers() {
		l(snap)
	}
}

func (s *ScanStore) subscribers() []Listener {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	out := make([]Listener, len(s.listeners))
	for i, sub := range s.listeners {
		out[i] = sub.fn
	}
	return out
}

func (s *ScanStore) snapshotLocked() Snapshot {
	return Snapshot{
		User:    s.user,
		Scans:   models.CloneScans(s.state.scans),
		Version: s.version,
	}
}
