package models

import "time"

// Preferences are the user toggles that survive restarts.
type Preferences struct {
	AutoCopyEnabled  bool      `json:"auto_copy_enabled"`
	HighlightEnabled bool      `json:"highlight_enabled"`
	LastUsername     string    `json:"last_username"`
	UpdatedAt        time.Time `json:"updated_at"`
}
