package models

// Settings is the settings document.
type Settings struct {
	DarkMode      bool `json:"darkMode"`
	RetentionDays int  `json:"retentionDays"`
}

// DefaultSettings returns the settings used when no document is persisted yet.
func DefaultSettings() *Settings {
	return &Settings{DarkMode: false, RetentionDays: 365}
}
