package persistence

import (
	"barcodedrop/internal/models"
	"barcodedrop/internal/persistence/interfaces"
	"barcodedrop/internal/providers"
	"barcodedrop/internal/services"
	"barcodedrop/internal/structures"
	"sync"
	"time"

	"github.com/roylee0704/gron"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	service     services.PreferencesServiceInterface
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		if _, err := s.persistIfDirty(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting preferences: %s", err)
		}
	})
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore loads saved preferences into the service. A missing file is not an error.
func (s *Scheduler) Restore() error {
	prefs, found, err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
	if err != nil {
		return err
	}
	if found {
		s.service.Put(prefs)
		s.logger.Infof(providers.TypeApp, "Restored preferences from %s", s.config.Persistence.FilePath)
	}
	return nil
}

// Persist writes the current preferences unconditionally.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	prefs, _ := s.service.Snapshot()
	return s.save(prefs)
}

func (s *Scheduler) persistIfDirty() (bool, error) {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	prefs, dirty := s.service.Snapshot()
	if !dirty {
		return false, nil
	}
	return true, s.save(prefs)
}

func (s *Scheduler) save(prefs models.Preferences) error {
	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath, prefs)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		return err
	}
	s.logger.Debugf(providers.TypeApp, "Persisted preferences to %s", s.config.Persistence.FilePath)
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.PreferencesServiceInterface, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		service:     service,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
