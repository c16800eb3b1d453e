package services

import (
	"barcodedrop/internal/models"
	"barcodedrop/internal/structures"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type PreferencesServiceInterface interface {
	Get() models.Preferences
	Put(prefs models.Preferences)
	AutoCopyEnabled() bool
	HighlightEnabled() bool
	SetAutoCopy(enabled bool) models.Preferences
	SetHighlight(enabled bool) models.Preferences
	// Snapshot returns the preferences and whether they changed since the last snapshot.
	Snapshot() (models.Preferences, bool)
}

type PreferencesService struct {
	mu    sync.RWMutex
	prefs models.Preferences
	dirty atomic.Bool
	now   func() time.Time
}

func NewPreferencesService(conf *structures.Config) PreferencesServiceInterface {
	return &PreferencesService{
		prefs: models.Preferences{
			AutoCopyEnabled:  conf.AutoCopy.Enabled,
			HighlightEnabled: true,
			LastUsername:     conf.Username,
		},
		now: time.Now,
	}
}

func (p *PreferencesService) Get() models.Preferences {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prefs
}

// Put replaces the preferences with a restored copy. The session user always wins.
func (p *PreferencesService) Put(prefs models.Preferences) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := p.prefs.LastUsername
	p.prefs = prefs
	if user != "" && user != prefs.LastUsername {
		p.prefs.LastUsername = user
		p.dirty.Store(true)
	}
}

func (p *PreferencesService) AutoCopyEnabled() bool {
	return p.Get().AutoCopyEnabled
}

func (p *PreferencesService) HighlightEnabled() bool {
	return p.Get().HighlightEnabled
}

func (p *PreferencesService) SetAutoCopy(enabled bool) models.Preferences {
	return p.update(func(prefs *models.Preferences) {
		prefs.AutoCopyEnabled = enabled
	})
}

func (p *PreferencesService) SetHighlight(enabled bool) models.Preferences {
	return p.update(func(prefs *models.Preferences) {
		prefs.HighlightEnabled = enabled
	})
}

func (p *PreferencesService) Snapshot() (models.Preferences, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prefs, p.dirty.Swap(false)
}

func (p *PreferencesService) update(fn func(*models.Preferences)) models.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	before := p.prefs
	fn(&p.prefs)
	if p.prefs != before {
		p.prefs.UpdatedAt = p.now().UTC()
		p.dirty.Store(true)
	}
	return p.prefs
}
